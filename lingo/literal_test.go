package lingo

import (
	"encoding/binary"
	"math"
	"testing"
)

func buildLiteralFixture(t *testing.T, order binary.ByteOrder, kinds []LiteralKind, payloads [][]byte) (lit, ltd []byte) {
	t.Helper()
	ltd = make([]byte, 0)
	descs := make([]byte, 0)
	header := make([]byte, 4)
	order.PutUint32(header, uint32(len(kinds)))

	for i, k := range kinds {
		off := len(ltd)
		ltd = append(ltd, payloads[i]...)
		d := make([]byte, 8)
		order.PutUint32(d[0:4], uint32(k))
		order.PutUint32(d[4:8], uint32(off))
		descs = append(descs, d...)
	}
	lit = append(header, descs...)
	return lit, ltd
}

func TestDecodeLiteralInt(t *testing.T) {
	order := binary.BigEndian
	payload := make([]byte, 4)
	order.PutUint32(payload, uint32(int32(-7)))
	lit, ltd := buildLiteralFixture(t, order, []LiteralKind{LitInt}, [][]byte{payload})

	lits := parseLiterals(lit, ltd, order, func(uint32) string { return "" })
	if len(lits) != 1 || lits[0].Kind != LitInt || lits[0].Int != -7 {
		t.Fatalf("got %+v, want Int=-7", lits)
	}
}

func TestDecodeLiteralFloat(t *testing.T) {
	order := binary.BigEndian
	payload := make([]byte, 12)
	order.PutUint64(payload[4:12], math.Float64bits(3.5))
	lit, ltd := buildLiteralFixture(t, order, []LiteralKind{LitFloat}, [][]byte{payload})

	lits := parseLiterals(lit, ltd, order, func(uint32) string { return "" })
	if len(lits) != 1 || lits[0].Kind != LitFloat || lits[0].Float != 3.5 {
		t.Fatalf("got %+v, want Float=3.5", lits)
	}
}

func TestDecodeLiteralString(t *testing.T) {
	order := binary.BigEndian
	s := "hello"
	payload := make([]byte, 4+len(s))
	order.PutUint32(payload[:4], uint32(len(s)))
	copy(payload[4:], s)
	lit, ltd := buildLiteralFixture(t, order, []LiteralKind{LitString}, [][]byte{payload})

	lits := parseLiterals(lit, ltd, order, func(uint32) string { return "" })
	if len(lits) != 1 || lits[0].Kind != LitString || lits[0].String != "hello" {
		t.Fatalf("got %+v, want String=hello", lits)
	}
}

func TestDecodeLiteralSymbolResolvesThroughCallback(t *testing.T) {
	order := binary.BigEndian
	payload := make([]byte, 4)
	order.PutUint32(payload, 42)
	lit, ltd := buildLiteralFixture(t, order, []LiteralKind{LitSymbol}, [][]byte{payload})

	lits := parseLiterals(lit, ltd, order, func(id uint32) string {
		if id == 42 {
			return "mySymbol"
		}
		return "?"
	})
	if len(lits) != 1 || lits[0].Symbol != "mySymbol" {
		t.Fatalf("got %+v, want Symbol=mySymbol", lits)
	}
}

func TestDecodeLiteralListNested(t *testing.T) {
	order := binary.BigEndian
	// Nested list: count=2, then (LitInt,off) x2 pointing into the same ltd.
	inner := make([]byte, 4)
	order.PutUint32(inner, 5)

	ltd := make([]byte, 0)
	ltd = append(ltd, inner...) // offset 0: int literal payload (value 5)

	listPayload := make([]byte, 4+16)
	order.PutUint32(listPayload[0:4], 2)
	order.PutUint32(listPayload[4:8], uint32(LitInt))
	order.PutUint32(listPayload[8:12], 0)
	order.PutUint32(listPayload[12:16], uint32(LitInt))
	order.PutUint32(listPayload[16:20], 0)

	listOff := len(ltd)
	ltd = append(ltd, listPayload...)

	header := make([]byte, 4)
	order.PutUint32(header, 1)
	desc := make([]byte, 8)
	order.PutUint32(desc[0:4], uint32(LitList))
	order.PutUint32(desc[4:8], uint32(listOff))
	lit := append(header, desc...)

	lits := parseLiterals(lit, ltd, order, func(uint32) string { return "" })
	if len(lits) != 1 || lits[0].Kind != LitList || len(lits[0].List) != 2 {
		t.Fatalf("got %+v, want a 2-element list", lits)
	}
	if lits[0].List[0].Int != 5 || lits[0].List[1].Int != 5 {
		t.Errorf("nested int values = %+v, want both 5", lits[0].List)
	}
}

func TestParseLiteralDescriptorsTruncatedChunkStopsEarly(t *testing.T) {
	order := binary.BigEndian
	header := make([]byte, 4)
	order.PutUint32(header, 5) // claims 5 entries but supplies none
	descs := parseLiteralDescriptors(header, order)
	if len(descs) != 0 {
		t.Fatalf("got %d descriptors from a truncated table, want 0", len(descs))
	}
}
