package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dirarc/director/log"
	"github.com/dirarc/director/resource"
)

// WriteJournal emits the four structured artifacts named in §6
// (members.json, movie.json, timeline.json, castlibs.json) through sink.
// Called after Run so the journal reflects the final Report.
func WriteJournal(sink Sink, mgr *resource.Manager, report *Report) error {
	artifacts := []struct {
		name string
		v    interface{}
	}{
		{"members.json", BuildMemberRecords(mgr, report)},
		{"movie.json", BuildMovieConfigRecord(mgr)},
		{"timeline.json", BuildTimelineRecord(mgr)},
		{"castlibs.json", castlibsPayload{Casts: BuildCastLibRecords(mgr)}},
	}
	for _, a := range artifacts {
		data, err := Marshal(a.v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", a.name, err)
		}
		w, err := sink.Create(a.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", a.name, err)
		}
		_, writeErr := w.Write(data)
		closeErr := w.Close()
		if writeErr != nil {
			return fmt.Errorf("write %s: %w", a.name, writeErr)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s: %w", a.name, closeErr)
		}
	}
	return nil
}

type castlibsPayload struct {
	Casts []CastLibRecord `json:"casts"`
}

// OpenRunLog creates the run log artifact named `<input>_extraction.log`
// per §6 (a plain file, named after the input movie, sibling to the
// other output artifacts) and returns a Logger writing timestamped
// level-tagged lines to it alongside the close func the caller must
// defer.
func OpenRunLog(outputDir, inputPath string) (log.Logger, func() error, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	f, err := os.Create(filepath.Join(outputDir, base+"_extraction.log"))
	if err != nil {
		return nil, nil, err
	}
	return log.NewStdLogger(f), f.Close, nil
}
