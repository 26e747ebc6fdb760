// Package extract implements the orchestrator that fans a resolved Cast
// Manager's members out to per-type encoder collaborators: the §5
// concurrency model, the §6 external interfaces and artifact set, and the
// §7 error taxonomy's propagation policy (per-member failures are logged
// and skipped, never abort the run).
package extract

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dirarc/director/lingo"
	"github.com/dirarc/director/log"
	"github.com/dirarc/director/resource"
)

// EncodedAsset is the result of successfully encoding one member's
// content, per §5's worker/orchestrator contract ("a result record
// (produced file path, format, final width/height)").
type EncodedAsset struct {
	Path   string
	Format string
	Width  int
	Height int
}

// Sink is where an Encoder writes its output file, identified by a path
// relative to the run's output directory. The out-of-scope CLI supplies
// the concrete implementation; this package ships only DirSink.
type Sink interface {
	Create(relPath string) (io.WriteCloser, error)
}

// Encoder turns one member's raw content bytes into a modern-format file
// through Sink. Concrete encoders (PNG/WAV/JASC-palette/SVG/RTF writers)
// are external collaborators per §1; this package ships only NopEncoder.
type Encoder interface {
	EncodeBitmap(m *resource.Member, raw []byte, pal []resource.PaletteEntry, sink Sink) (EncodedAsset, error)
	EncodeSound(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error)
	EncodePalette(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error)
	EncodeText(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error)
	EncodeShape(m *resource.Member, sink Sink) (EncodedAsset, error)
	EncodeScript(m *resource.Member, source string, sink Sink) (EncodedAsset, error)
}

// DirSink is a thin os.Create wrapper rooted at Dir. File creation itself
// is not a concern any pack library specializes in, so this one part of
// the ambient stack is justifiably plain standard library.
type DirSink struct {
	Dir string
}

// Create opens (creating, truncating) Dir/relPath for writing, creating
// any missing parent directories.
func (s DirSink) Create(relPath string) (io.WriteCloser, error) {
	full := filepath.Join(s.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

// NopEncoder records every call without writing anything. Used by this
// package's own tests and by cmd/dirdump when no real encoders are wired
// in.
type NopEncoder struct {
	mu    sync.Mutex
	Calls []string
}

func (e *NopEncoder) record(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, kind)
}

func (e *NopEncoder) EncodeBitmap(m *resource.Member, raw []byte, pal []resource.PaletteEntry, sink Sink) (EncodedAsset, error) {
	e.record("bitmap")
	return EncodedAsset{Format: "png", Width: int(m.Width), Height: int(m.Height)}, nil
}

func (e *NopEncoder) EncodeSound(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error) {
	e.record("sound")
	return EncodedAsset{Format: "wav"}, nil
}

func (e *NopEncoder) EncodePalette(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error) {
	e.record("palette")
	return EncodedAsset{Format: "pal"}, nil
}

func (e *NopEncoder) EncodeText(m *resource.Member, raw []byte, sink Sink) (EncodedAsset, error) {
	e.record("text")
	return EncodedAsset{Format: "rtf"}, nil
}

func (e *NopEncoder) EncodeShape(m *resource.Member, sink Sink) (EncodedAsset, error) {
	e.record("shape")
	return EncodedAsset{Format: "svg"}, nil
}

func (e *NopEncoder) EncodeScript(m *resource.Member, source string, sink Sink) (EncodedAsset, error) {
	e.record("script")
	return EncodedAsset{Format: "ls"}, nil
}

// Options configures Run. WorkerCount and ILSLimit mirror the teacher's
// Options-struct-with-constructor-applied-defaults convention
// (pe.Options's Fast/SectionEntropy/MaxCOFFSymbolsCount fields).
type Options struct {
	// WorkerCount bounds the member-processing worker pool. Defaults to 4.
	WorkerCount int

	// ILSLimit is recorded here so callers configuring extract.Options in
	// one place can also thread it to container.Options when opening the
	// container; Run itself doesn't consult it. Defaults to 10 MiB.
	ILSLimit int64

	Logger log.Logger
}

func (o *Options) setDefaults() {
	if o.WorkerCount <= 0 {
		o.WorkerCount = 4
	}
	if o.ILSLimit <= 0 {
		o.ILSLimit = 10 * 1024 * 1024
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
}

// memberResult is what one member's processing produces: the encoded
// asset, or an error the orchestrator logs and folds into a no-format
// journal entry, per §7's per-member propagation policy.
type memberResult struct {
	member *resource.Member
	asset  EncodedAsset
	err    error
}

// Report is Run's summary: every successfully encoded asset plus counts
// for the run-end log line §7 calls for ("successful member count and
// bytes written are summarized at run end" — byte counts are the
// Sink/Encoder's own concern; Run tracks member counts and asset
// records).
type Report struct {
	Succeeded int
	Failed    int
	Assets    map[uint32]EncodedAsset
}

// Run fans mgr's members out to enc, writing through sink, per §5's
// ordering guarantees: palette members are processed in a dedicated first
// wave before any bitmap task is enqueued, and no per-member task reads
// another member's result. Run itself only fails on the fatal
// preconditions (nil manager, nil sink) or a cancelled ctx; every other
// failure is a per-member skip recorded in the returned Report.
func Run(ctx context.Context, mgr *resource.Manager, enc Encoder, sink Sink, opts Options) (*Report, error) {
	if mgr == nil {
		return nil, ErrNilManager
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	opts.setDefaults()
	logger := log.NewHelper(opts.Logger)

	report := &Report{Assets: make(map[uint32]EncodedAsset)}
	var mu sync.Mutex

	var palettes, rest []*resource.Member
	for _, m := range mgr.Members() { // palette members first, per Members()'s own ordering contract
		if m.TypeID == resource.TypePalette {
			palettes = append(palettes, m)
		} else {
			rest = append(rest, m)
		}
	}

	// Dedicated first wave: ordering guarantee (1), "palette members are
	// fully processed before any bitmap member begins content
	// extraction".
	paletteCache := make(map[uint32][]resource.PaletteEntry)
	err := runWave(ctx, palettes, opts.WorkerCount, func(m *resource.Member) memberResult {
		res := processMember(mgr, m, nil, enc, sink, opts.Logger, logger)
		if res.err == nil {
			if raw, _, ok := mgr.ContentChunk(m); ok {
				mu.Lock()
				paletteCache[m.ID] = resource.DecodePaletteEntries(raw)
				mu.Unlock()
			}
		}
		return res
	}, &mu, report)
	if err != nil {
		return report, err
	}

	err = runWave(ctx, rest, opts.WorkerCount, func(m *resource.Member) memberResult {
		var pal []resource.PaletteEntry
		if p, ok := mgr.ResolvePalette(m); ok {
			mu.Lock()
			pal = paletteCache[p.ID]
			mu.Unlock()
		}
		return processMember(mgr, m, pal, enc, sink, opts.Logger, logger)
	}, &mu, report)
	if err != nil {
		return report, err
	}

	resolveDanglingScripts(mgr, enc, sink, opts.Logger, logger, report, &mu)

	logger.Infof("extraction complete: %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report, nil
}

// runWave processes members with a fixed-size worker pool, mirroring
// distr1-distri's internal/batch scheduler loop: a buffered channel of
// work, errgroup.WithContext for cancellation, workers checking ctx.Err()
// at their next task boundary (§5's cancellation contract).
func runWave(ctx context.Context, members []*resource.Member, workers int, process func(*resource.Member) memberResult, mu *sync.Mutex, report *Report) error {
	if len(members) == 0 {
		return nil
	}
	work := make(chan *resource.Member, len(members))
	for _, m := range members {
		work <- m
	}
	close(work)

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for m := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				res := process(m)
				recordResult(report, mu, res)
			}
			return nil
		})
	}
	return eg.Wait()
}

func recordResult(report *Report, mu *sync.Mutex, res memberResult) {
	mu.Lock()
	defer mu.Unlock()
	if res.err != nil {
		report.Failed++
		return
	}
	report.Succeeded++
	report.Assets[res.member.ID] = res.asset
}

// processMember acquires m's content (and optional palette) bytes and
// dispatches to the appropriate Encoder method by type, per §4.5 member
// dispatch's tag-priority content acquisition.
func processMember(mgr *resource.Manager, m *resource.Member, pal []resource.PaletteEntry, enc Encoder, sink Sink, rawLogger log.Logger, logger *log.Helper) (result memberResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("member %d (%s): panic: %v", m.ID, m.TypeID, r)
			result = memberResult{member: m, err: errPanic(m)}
		}
	}()

	switch m.TypeID {
	case resource.TypePalette:
		raw, _, ok := mgr.ContentChunk(m)
		if !ok {
			return fail(m, errNoContent(m), logger)
		}
		asset, err := enc.EncodePalette(m, raw, sink)
		return finish(m, asset, err, logger)

	case resource.TypeBitmap, resource.TypePicture:
		raw, _, ok := mgr.ContentChunk(m)
		if !ok {
			return fail(m, errNoContent(m), logger)
		}
		asset, err := enc.EncodeBitmap(m, raw, pal, sink)
		return finish(m, asset, err, logger)

	case resource.TypeSound:
		raw, _, ok := mgr.ContentChunk(m)
		if !ok {
			return fail(m, errNoContent(m), logger)
		}
		asset, err := enc.EncodeSound(m, raw, sink)
		return finish(m, asset, err, logger)

	case resource.TypeText, resource.TypeField, resource.TypeRTE:
		raw, _, ok := mgr.ContentChunk(m)
		if !ok {
			return fail(m, errNoContent(m), logger)
		}
		asset, err := enc.EncodeText(m, raw, sink)
		return finish(m, asset, err, logger)

	case resource.TypeShape:
		asset, err := enc.EncodeShape(m, sink)
		return finish(m, asset, err, logger)

	case resource.TypeScript:
		source, err := decompileMember(mgr, m, rawLogger)
		if err != nil {
			return fail(m, err, logger)
		}
		asset, err := enc.EncodeScript(m, source, sink)
		return finish(m, asset, err, logger)

	default:
		// FilmLoop, Movie, Button, Transition, Xtra, Font, Mesh,
		// VectorShape, Flash: no dedicated Encoder method in §6; left
		// with no format, matching §7's "member is marked with no
		// format" propagation policy.
		return fail(m, errUnsupportedType(m), logger)
	}
}

// decompileMember acquires m's Lscr/rcsL content chunk and runs it
// through the Lingo decompiler, joining every handler's pretty-printed
// source in declaration order. Falls back to the common-info entry-0
// script text (§4.4.1) when no content chunk is associated at all.
func decompileMember(mgr *resource.Manager, m *resource.Member, logger log.Logger) (string, error) {
	raw, _, ok := mgr.ContentChunk(m)
	if !ok {
		if src := m.ScriptSource(); src != "" {
			return src, nil
		}
		return "", errNoContent(m)
	}
	script, err := lingo.Decompile(raw, mgr.Order(), mgr.NamePool(), lingo.Options{
		Logger:         logger,
		ScriptTypeHint: m.ScriptType,
	})
	if err != nil {
		return "", err
	}
	return joinHandlers(script), nil
}

func joinHandlers(s *lingo.Script) string {
	var out strings.Builder
	for i, h := range s.Handlers {
		if i > 0 {
			out.WriteString("\n\n")
		}
		if node, ok := s.AST[h.Name]; ok {
			out.WriteString(node.String())
		}
	}
	return out.String()
}

func fail(m *resource.Member, err error, logger *log.Helper) memberResult {
	logger.Warnf("member %d (%s) %q: %v", m.ID, m.TypeID, m.Name, err)
	return memberResult{member: m, err: err}
}

func finish(m *resource.Member, asset EncodedAsset, err error, logger *log.Helper) memberResult {
	if err != nil {
		return fail(m, err, logger)
	}
	return memberResult{member: m, asset: asset}
}

func errNoContent(m *resource.Member) error {
	return &memberError{id: m.ID, typ: m.TypeID.String(), reason: "no content chunk"}
}

func errUnsupportedType(m *resource.Member) error {
	return &memberError{id: m.ID, typ: m.TypeID.String(), reason: "no encoder for this type"}
}

func errPanic(m *resource.Member) error {
	return &memberError{id: m.ID, typ: m.TypeID.String(), reason: "encoder panicked"}
}

type memberError struct {
	id     uint32
	typ    string
	reason string
}

func (e *memberError) Error() string {
	return "member " + itoa(e.id) + " (" + e.typ + "): " + e.reason
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// sanitizeRE matches every character §6 calls out for filename
// sanitization: `/ \ ? % * : | " < > <whitespace>`.
var sanitizeRE = regexp.MustCompile(`[/\\?%*:|"<>\s]`)

// SanitizeName replaces every character in sanitizeRE's set with `_` and
// trims the result, per §6's filename sanitization rule.
func SanitizeName(name string) string {
	return strings.TrimSpace(sanitizeRE.ReplaceAllString(name, "_"))
}

// resolveDanglingScripts implements §7's "unreferenced scripts" recovery:
// Lscr/rcsL chunks with no key-table binding are matched positionally,
// in ascending chunk-id order (a proxy for "order of appearance" — the
// monotonic id the container assigns at discovery time), against
// Script-type members that are still unresolved after the main fan-out.
func resolveDanglingScripts(mgr *resource.Manager, enc Encoder, sink Sink, rawLogger log.Logger, logger *log.Helper, report *Report, mu *sync.Mutex) {
	reverse := mgr.KeyTable().Reverse

	var danglingChunks []uint32
	for id, tag := range mgr.Chunks() {
		if tag != "Lscr" && tag != "rcsL" {
			continue
		}
		if _, bound := reverse[id]; bound {
			continue
		}
		danglingChunks = append(danglingChunks, id)
	}
	if len(danglingChunks) == 0 {
		return
	}
	sort.Slice(danglingChunks, func(i, j int) bool { return danglingChunks[i] < danglingChunks[j] })

	var unresolved []*resource.Member
	mu.Lock()
	for _, m := range mgr.Members() {
		if m.TypeID != resource.TypeScript {
			continue
		}
		if _, done := report.Assets[m.ID]; done {
			continue
		}
		unresolved = append(unresolved, m)
	}
	mu.Unlock()
	sort.Slice(unresolved, func(i, j int) bool { return unresolved[i].ID < unresolved[j].ID })

	n := len(danglingChunks)
	if len(unresolved) < n {
		n = len(unresolved)
	}
	for i := 0; i < n; i++ {
		m := unresolved[i]
		raw, ok := mgr.ChunkData(danglingChunks[i])
		if !ok {
			continue
		}
		script, err := lingo.Decompile(raw, mgr.Order(), mgr.NamePool(), lingo.Options{
			Logger:         rawLogger,
			ScriptTypeHint: m.ScriptType,
		})
		if err != nil {
			logger.Warnf("dangling script chunk %d for member %d: %v", danglingChunks[i], m.ID, err)
			continue
		}
		asset, err := enc.EncodeScript(m, joinHandlers(script), sink)
		if err != nil {
			logger.Warnf("dangling script chunk %d for member %d: encode: %v", danglingChunks[i], m.ID, err)
			continue
		}
		mu.Lock()
		report.Succeeded++
		report.Failed--
		report.Assets[m.ID] = asset
		mu.Unlock()
		logger.Infof("recovered dangling script chunk %d as member %d", danglingChunks[i], m.ID)
	}
}
