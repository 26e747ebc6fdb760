package lingo

import "encoding/binary"

// Handler is one parsed handler record plus its resolved names, per
// §3/§4.7.
type Handler struct {
	NameID      uint32
	Name        string
	HandlerID   uint32
	CodeOffset  uint32
	CodeLength  uint32
	Args        []string
	Locals      []string
	MeInserted  bool
	Ops         []Operation
}

// handlerRecordFields is the fixed, non-reserved portion of one HAND
// record: name_id, handler_id, code_length, code_offset, arg_count,
// arg_offset, local_count, local_offset, each a u32 — eight fields, 32
// bytes. This concrete field width is this package's own choice (§4.7
// names the fields but not their on-disk size).
const handlerRecordFields = 32

const legacyHandlerStride = 46

// parseHandlerStride resolves the per-record stride: the modern schema
// uses the segment header length already read during schema detection;
// the legacy schema uses the spec-mandated default of 46 bytes when
// 46*count fits within the HAND segment (its 8-byte header included) and
// otherwise falls back to len(hand)/count, per the open question
// recorded in DESIGN.md.
func parseHandlerStride(legacy bool, headerLen uint16, hand []byte, count uint32) int {
	if !legacy {
		if int(headerLen) >= handlerRecordFields {
			return int(headerLen)
		}
		return handlerRecordFields
	}
	if count > 0 && legacyHandlerStride*int(count) <= len(hand) {
		return legacyHandlerStride
	}
	if count > 0 {
		return len(hand) / int(count)
	}
	return legacyHandlerStride
}

// parseHandlers reads the HAND segment's u32 count, 4 reserved bytes,
// then count stride-byte records, per §4.7. scriptData is the full
// script chunk, since offsets in each record are absolute within it.
func parseHandlers(hand, scriptData []byte, legacy bool, headerLen uint16, order binary.ByteOrder) []Handler {
	if len(hand) < 8 {
		return nil
	}
	count := order.Uint32(hand[:4])
	stride := parseHandlerStride(legacy, headerLen, hand, count)
	if stride < handlerRecordFields {
		return nil
	}

	var out []Handler
	pos := 8
	for i := uint32(0); i < count && pos+handlerRecordFields <= len(hand); i++ {
		rec := hand[pos : pos+handlerRecordFields]
		h := Handler{
			NameID:     order.Uint32(rec[0:4]),
			HandlerID:  order.Uint32(rec[4:8]),
			CodeLength: order.Uint32(rec[8:12]),
			CodeOffset: order.Uint32(rec[12:16]),
		}
		argCount := order.Uint32(rec[16:20])
		argOffset := order.Uint32(rec[20:24])
		localCount := order.Uint32(rec[24:28])
		localOffset := order.Uint32(rec[28:32])

		h.Args = readNameIDList(scriptData, int(argOffset), int(argCount), order)
		h.Locals = readNameIDList(scriptData, int(localOffset), int(localCount), order)

		if code := sliceRange(scriptData, int(h.CodeOffset), int(h.CodeLength)); code != nil {
			ops, _ := Scan(code, int64(h.CodeOffset))
			h.Ops = ops
		}

		out = append(out, h)
		pos += stride
	}
	return out
}

// readNameIDList reads count u16 name-pool ids starting at byte offset
// off within data, returning their raw ids as decimal placeholder
// strings; resolveHandlerNames replaces these with actual pool lookups
// once the name-table shift is known.
func readNameIDList(data []byte, off, count int, order binary.ByteOrder) []string {
	out := make([]string, 0, count)
	pos := off
	for i := 0; i < count; i++ {
		if pos+2 > len(data) {
			break
		}
		id := order.Uint16(data[pos : pos+2])
		out = append(out, itoaLingo(uint32(id)))
		pos += 2
	}
	return out
}

// resolveHandlerNames replaces a handler's placeholder arg/local ids (and
// its own name) with resolved pool names, filtering a "me" argument and
// recording whether it was filtered so reinsertMe can put it back at
// position zero, per §4.7.
func resolveHandlerNames(h *Handler, pool NamePool, shifts shiftSet, parseUint func(string) uint32) {
	h.Name = resolveName(pool, h.NameID, shifts.handler)

	filteredArgs := make([]string, 0, len(h.Args))
	for _, raw := range h.Args {
		id := parseUint(raw)
		name := resolveName(pool, id, shifts.handler)
		if name == "me" {
			h.MeInserted = true
			continue
		}
		filteredArgs = append(filteredArgs, name)
	}
	h.Args = filteredArgs

	locals := make([]string, 0, len(h.Locals))
	for _, raw := range h.Locals {
		id := parseUint(raw)
		locals = append(locals, resolveName(pool, id, shifts.handler))
	}
	h.Locals = locals
}

// reinsertMe prepends "me" to a handler's argument list when name
// resolution filtered a "me" argument out of it (MeInserted). The script
// type is not consulted: a parent or behavior script handler whose
// argument list carried no "me" gets none inserted.
func reinsertMe(h *Handler) {
	if !h.MeInserted {
		return
	}
	h.Args = append([]string{"me"}, h.Args...)
}

// PropertyNames reads a PROP segment: a u16 count followed by that many
// u16 name ids, resolved through the handler-shift resolver and filtered
// against a curated denylist, per §4.7.
func PropertyNames(prop []byte, order binary.ByteOrder, pool NamePool, shift int) []string {
	if len(prop) < 2 {
		return nil
	}
	count := order.Uint16(prop[:2])
	var out []string
	pos := 2
	for i := uint16(0); i < count && pos+2 <= len(prop); i++ {
		id := order.Uint16(prop[pos : pos+2])
		name := resolveName(pool, uint32(id), shift)
		if !deniedPropertyName(name) {
			out = append(out, name)
		}
		pos += 2
	}
	return out
}

// deniedPropertyNames is the curated denylist §4.7 mentions by example.
var deniedPropertyNames = map[string]bool{
	"pNoiseStripped": true,
	"constant":       true,
}

func deniedPropertyName(name string) bool { return deniedPropertyNames[name] }
