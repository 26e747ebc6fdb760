package resource

import (
	"bytes"
	"testing"
)

func buildMovieConfigChunk(directorVersion uint16) []byte {
	var buf bytes.Buffer
	buf.Write(be16(0))   // header length, unused
	buf.Write(be16(1201)) // file version
	buf.Write(be16(10))  // stage rect: top
	buf.Write(be16(10))  // left
	buf.Write(be16(522)) // bottom
	buf.Write(be16(650)) // right
	buf.Write(be16(1))   // min member
	buf.Write(be16(200)) // max member
	buf.Write(be16(directorVersion))

	if directorVersion < 700 {
		buf.Write(be16(3))       // palette index
		buf.Write(make([]byte, 4)) // reserved
	} else {
		buf.Write(be16(10)) // R
		buf.Write(be16(20)) // G
		buf.Write(be16(30)) // B
	}

	buf.Write(be16(32))  // bit depth
	buf.Write(be16(30))  // frame rate
	buf.Write(be16(uint16(int16(PlatformMac))))
	buf.Write(be16(46)) // protection source, 46 % 23 == 0
	return buf.Bytes()
}

func TestParseMovieConfigPreDirector7(t *testing.T) {
	chunk := buildMovieConfigChunk(600)
	c := buildContainer(t, []fixtureChunk{{tag: "VWCF", payload: chunk}})

	cfg, err := ParseMovieConfig(c)
	if err != nil {
		t.Fatalf("ParseMovieConfig: %v", err)
	}
	if cfg.StageColor.PaletteIndex != 3 {
		t.Fatalf("StageColor.PaletteIndex = %d, want 3", cfg.StageColor.PaletteIndex)
	}
	if cfg.MinMember != 1 || cfg.MaxMember != 200 {
		t.Fatalf("MinMember/MaxMember = %d/%d, want 1/200", cfg.MinMember, cfg.MaxMember)
	}
	if !cfg.Protected {
		t.Fatal("expected Protected = true for protection source 46 (46%23==0)")
	}
	if cfg.PlatformID != PlatformMac {
		t.Fatalf("PlatformID = %d, want PlatformMac", cfg.PlatformID)
	}
}

func TestParseMovieConfigPostDirector7(t *testing.T) {
	chunk := buildMovieConfigChunk(700)
	c := buildContainer(t, []fixtureChunk{{tag: "DRCF", payload: chunk}})

	cfg, err := ParseMovieConfig(c)
	if err != nil {
		t.Fatalf("ParseMovieConfig: %v", err)
	}
	if cfg.StageColor.R != 10 || cfg.StageColor.G != 20 || cfg.StageColor.B != 30 {
		t.Fatalf("StageColor = %+v, want {R:10 G:20 B:30}", cfg.StageColor)
	}
}

func TestParseMovieConfigMissingChunk(t *testing.T) {
	c := buildContainer(t, []fixtureChunk{{tag: "free", payload: []byte("x")}})
	if _, err := ParseMovieConfig(c); err != ErrMovieConfigNotFound {
		t.Fatalf("err = %v, want ErrMovieConfigNotFound", err)
	}
}
