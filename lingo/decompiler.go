package lingo

import (
	"encoding/binary"
	"errors"

	"github.com/dirarc/director/log"
)

// ErrEmptyScript means a script chunk had no handlers and no properties,
// which this package treats as a malformed decompile target rather than
// a legitimate degenerate case.
var ErrEmptyScript = errors.New("lingo: script chunk carries no handlers or properties")

// Script is one fully decompiled Lscr chunk: its declared properties and
// every handler it defines, in source order.
type Script struct {
	Properties []string
	Handlers   []*Handler
	AST        map[string]*HandlerNode
}

// Options configures Decompile. Logger defaults to a discard logger.
type Options struct {
	Logger log.Logger
	// ScriptTypeHint seeds the modern schema's script-type field when
	// the chunk itself doesn't carry one (offset 18 reads zero).
	ScriptTypeHint uint16
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
}

// Decompile parses one script chunk end to end: schema detection, shift
// calibration, literal materialization, handler parsing and per-handler
// AST reconstruction, per the ordering law that literals and shifts are
// fixed before any handler body is walked.
func Decompile(data []byte, order binary.ByteOrder, pool NamePool, opts Options) (*Script, error) {
	opts.setDefaults()
	logger := log.NewHelper(opts.Logger)

	s, err := detectSchema(data, order, opts.ScriptTypeHint)
	if err != nil {
		return nil, err
	}

	handlers := parseHandlers(s.hand, data, s.legacy, s.headerLen, order)
	if len(handlers) == 0 && len(s.prop) == 0 {
		return nil, ErrEmptyScript
	}

	shifts := shiftSet{}
	if len(handlers) > 0 {
		shifts = calibrateShifts(pool, handlers[0].NameID, handlers[0].Ops)
	}

	// Literal symbols resolve through the global shift, which requires
	// shifts to already be calibrated; literals are otherwise independent
	// of any handler, per the "literals before handlers" ordering law.
	lits := parseLiterals(s.lit, s.ltd, order, func(id uint32) string {
		return resolveName(pool, id, shifts.global)
	})

	props := PropertyNames(s.prop, order, pool, shifts.handler)

	propName := func(id uint32) string {
		if int(id) < len(props) {
			return props[id]
		}
		return resolveName(pool, id, shifts.handler)
	}

	parseUint := func(s string) uint32 {
		var v uint32
		for _, c := range s {
			if c < '0' || c > '9' {
				return v
			}
			v = v*10 + uint32(c-'0')
		}
		return v
	}

	out := &Script{Properties: props, AST: make(map[string]*HandlerNode, len(handlers))}
	for i := range handlers {
		h := &handlers[i]
		resolveHandlerNames(h, pool, shifts, parseUint)
		reinsertMe(h)
		out.Handlers = append(out.Handlers, h)

		ctx := &buildCtx{h: h, lits: lits, pool: pool, shifts: shifts, propName: propName}
		body := ctx.Build()
		out.AST[h.Name] = &HandlerNode{Name: h.Name, Args: h.Args, Body: body}
		logger.Debugf("decompiled handler %s (%d ops)", h.Name, len(h.Ops))
	}

	return out, nil
}
