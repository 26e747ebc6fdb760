// Package resource implements the Metadata Resolver and Cast Manager: it
// turns a container's chunk index into a key table, name pool,
// script-context table, movie cast list, movie configuration, and a
// fully enriched set of cast members.
package resource

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/dirarc/director/container"
	"github.com/dirarc/director/log"
)

// MaxCastSlots bounds discovered member ids; anything at or beyond it is
// dropped as almost certainly the product of a malformed reference.
const MaxCastSlots = 32768

// contentTagPriority lists, per member type, the content chunk tags to
// try in order.
var contentTagPriority = map[TypeID][]string{
	TypeBitmap:  {"BITD", "DIB ", "PIXL"},
	TypePicture: {"PICT", "BITD", "DIB ", "PIXL"},
	TypeText:    {"STXT", "TEXT"},
	TypeField:   {"STXT", "TEXT"},
	TypeSound:   {"SND ", "SND*"},
	TypePalette: {"CLUT", "Palt"},
	TypeScript:  {"Lscr", "rcsL"},
}

// resourceAliasChain resolves a content-bearing chunk's tag through the
// Cast Manager's own aliasing table (distinct from the container's
// tag normalizer, which only concerns itself with container block
// tags): DIB -> BITD, PMBA -> Abmp -> BITD, SND* -> SND .
var resourceAliasChain = map[string]string{
	"DIB ": "BITD",
	"PMBA": "Abmp",
	"Abmp": "BITD",
	"SND*": "SND ",
}

func resolveResourceAlias(tag string) string {
	for i := 0; i < 4; i++ {
		next, ok := resourceAliasChain[tag]
		if !ok {
			return tag
		}
		tag = next
	}
	return tag
}

// Options configures a Manager.
type Options struct {
	Logger log.Logger
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
}

// Manager is the Cast Manager: the fully resolved metadata view of one
// container, ready for member content dispatch.
type Manager struct {
	c *container.Container

	keyTable    *KeyTable
	names       *NamePool
	scriptCtx   *ScriptContextTable
	castList    *CastList
	movieConfig *MovieConfig

	members   map[uint32]*Member
	castOrder []uint32

	log *log.Helper
}

// NewManager resolves every §4.4 metadata structure from c and runs the
// §4.5 discovery and enrichment passes. Missing optional structures
// (name pool, script context, cast list, movie config) degrade to empty
// or synthesized values rather than a fatal error (the name pool and
// movie config with a logged warning), matching the
// container's own fail-open posture; only a missing key table combined
// with zero discoverable members is possible, and that is a legitimate,
// silently empty result (an essentially contentless movie), not an
// error.
func NewManager(c *container.Container, opts Options) (*Manager, error) {
	opts.setDefaults()
	m := &Manager{
		c:       c,
		members: make(map[uint32]*Member),
		log:     log.NewHelper(opts.Logger),
	}

	kt, err := ParseKeyTable(c)
	if err != nil {
		m.log.Warnf("key table: %v", err)
		kt = newKeyTable()
	}
	m.keyTable = kt

	if m.names, err = ParseNamePool(c); err != nil {
		m.log.Warnf("name pool: %v", err)
		m.names = &NamePool{}
	}

	m.scriptCtx = ParseScriptContextTables(c)

	if m.castList, err = ParseCastList(c); err != nil {
		m.castList = m.synthesizeCastList()
	}

	if m.movieConfig, err = ParseMovieConfig(c); err != nil {
		m.log.Warnf("movie configuration: %v", err)
		m.movieConfig = &MovieConfig{}
	}

	m.discover()
	m.enrichPass1()
	m.enrichPass2()
	return m, nil
}

// synthesizeCastList builds a single-entry stand-in when no MCsL chunk
// exists but exactly one CASt/CAS* chunk is referenced by the key table,
// per §4.4's "or synthesize from the single CAS* referenced by a
// key-table entry".
func (m *Manager) synthesizeCastList() *CastList {
	var castTagSections []uint32
	for _, tags := range m.keyTable.Forward {
		for tag, sectionID := range tags {
			if tag == "CASt" {
				castTagSections = append(castTagSections, sectionID)
			}
		}
	}
	if len(castTagSections) != 1 {
		return &CastList{}
	}
	return &CastList{Entries: []CastListEntry{{Name: "Internal"}}}
}

// discover aggregates candidate member ids from the key table, the
// script-context table (resolved through the reverse section map), and
// the cast-order array, per §4.5.
func (m *Manager) discover() {
	m.castOrder = sortedKeys(m.keyTable.Forward)

	ids := make(map[uint32]struct{})
	for castID := range m.keyTable.Forward {
		ids[castID] = struct{}{}
	}
	for _, sectionID := range flattenScriptContext(m.scriptCtx) {
		if castID, ok := m.keyTable.Reverse[sectionID]; ok {
			ids[castID] = struct{}{}
		}
	}
	for _, id := range m.castOrder {
		ids[id] = struct{}{}
	}

	for id := range ids {
		if id >= MaxCastSlots {
			continue
		}
		m.members[id] = defaultMember(id)
	}
}

func defaultMember(id uint32) *Member {
	return &Member{ID: id, Name: defaultMemberName(id)}
}

func defaultMemberName(id uint32) string {
	return "member_" + itoa(id)
}

// enrichPass1 locates each discovered member's CASt chunk via the key
// table and merges the parsed result in, per §4.5.
func (m *Manager) enrichPass1() {
	for castID, member := range m.members {
		sectionID, ok := m.keyTable.Section(castID, "CASt")
		if !ok {
			continue
		}
		data, ok := m.c.GetChunk(sectionID)
		if !ok {
			continue
		}
		parsed, err := ParseCASt(data, m.c.Order())
		if err != nil {
			m.log.Warnf("CASt chunk for member %d: %v", castID, err)
			continue
		}
		parsed.ID = castID
		mergeMember(member, parsed)
	}
}

// mergeMember applies the §3 property-merge discipline: a field is only
// overwritten if the destination's current value is the type default or
// carries no descriptive content.
func mergeMember(dst, src *Member) {
	if dst.Name == "" || strings.HasPrefix(dst.Name, "member_") {
		dst.Name = src.Name
	}
	dst.TypeID = src.TypeID
	dst.Rect = src.Rect
	dst.RegPoint = src.RegPoint
	dst.PaletteID = src.PaletteID
	dst.BitDepth = src.BitDepth
	dst.ScriptID = src.ScriptID
	dst.ScriptType = src.ScriptType
	dst.Flags = src.Flags
	dst.Comment = src.Comment
	dst.Created = src.Created
	dst.Modified = src.Modified
	dst.Width = src.Width
	dst.Height = src.Height
	dst.IsColor = src.IsColor
	dst.UpdateFlags = src.UpdateFlags
	dst.PaletteCastLib = src.PaletteCastLib
	dst.ShapeType = src.ShapeType
	dst.Pattern = src.Pattern
	dst.ForeColor = src.ForeColor
	dst.BackColor = src.BackColor
	dst.LineSize = src.LineSize
	dst.LineDirection = src.LineDirection
	dst.SampleRate = src.SampleRate
	dst.Channels = src.Channels
	dst.ButtonType = src.ButtonType
	dst.TransitionDuration = src.TransitionDuration
	dst.TransitionChunkSize = src.TransitionChunkSize
	dst.TransitionType = src.TransitionType
	dst.scriptSource = src.scriptSource
}

// enrichPass2 recovers members from containers whose authoritative
// mapping table is absent or incomplete: it walks every chunk, turning
// unassociated canonical CASt chunks into new members and giving
// unassociated content-bearing chunks a synthetic key-table entry when
// their own id already names a discovered member, per §4.5.
func (m *Manager) enrichPass2() {
	nextID := uint32(0)
	for id := range m.members {
		if id >= nextID {
			nextID = id + 1
		}
	}

	for id, tag := range m.c.Chunks() {
		if _, alreadyAssociated := m.keyTable.Reverse[id]; alreadyAssociated {
			continue
		}

		switch tag {
		case "CASt":
			data, ok := m.c.GetChunk(id)
			if !ok {
				continue
			}
			parsed, err := ParseCASt(data, m.c.Order())
			if err != nil {
				continue
			}
			newID := nextID
			nextID++
			parsed.ID = newID
			m.members[newID] = parsed
			m.keyTable.add(newID, id, "CASt")

		default:
			aliased := resolveResourceAlias(tag)
			if !isContentTag(aliased) {
				continue
			}
			if candidate, ok := m.members[id]; ok {
				m.keyTable.add(candidate.ID, id, aliased)
			}
		}
	}
}

func isContentTag(tag string) bool {
	switch tag {
	case "BITD", "SND ", "STXT", "TEXT", "CLUT", "Palt", "PIXL", "PICT":
		return true
	default:
		return false
	}
}

// ResolvePalette resolves member's palette_id to a Palette-type member,
// trying, in order: slot-based lookup in the cast-order array, the
// script-context table, and a direct key-table (identity) lookup, per
// §4.4's palette id resolution. Returns ok=false for the two built-in
// system palettes (0 and -1) and when no strategy finds a match.
func (m *Manager) ResolvePalette(member *Member) (*Member, bool) {
	pid := member.PaletteID
	if pid == 0 || pid == -1 {
		return nil, false
	}

	slot := int(pid) - int(m.movieConfig.MinMember) + 1
	if slot >= 1 && slot <= len(m.castOrder) {
		if cand, ok := m.members[m.castOrder[slot-1]]; ok && cand.TypeID == TypePalette {
			return cand, true
		}
	}

	if sectionID, ok := m.scriptCtx.Section(uint32(pid)); ok {
		if castID, ok := m.keyTable.Reverse[sectionID]; ok {
			if cand, ok := m.members[castID]; ok && cand.TypeID == TypePalette {
				return cand, true
			}
		}
	}

	if cand, ok := m.members[uint32(pid)]; ok && cand.TypeID == TypePalette {
		return cand, true
	}
	return nil, false
}

// ContentChunk acquires member's content bytes by tag priority, per §4.5
// member dispatch. Returns the resolved tag alongside the bytes so
// callers can tell which representation they received.
func (m *Manager) ContentChunk(member *Member) ([]byte, string, bool) {
	tags, ok := contentTagPriority[member.TypeID]
	if !ok {
		return nil, "", false
	}
	for _, tag := range tags {
		if sectionID, ok := m.keyTable.Section(member.ID, tag); ok {
			if data, ok := m.c.GetChunk(sectionID); ok {
				return data, tag, true
			}
		}
	}
	return nil, "", false
}

// AlphaChunk acquires member's optional ALFA chunk, if any.
func (m *Manager) AlphaChunk(member *Member) ([]byte, bool) {
	sectionID, ok := m.keyTable.Section(member.ID, "ALFA")
	if !ok {
		return nil, false
	}
	return m.c.GetChunk(sectionID)
}

// Members returns every discovered member, palette-type members first so
// callers (the extract orchestrator) can process them in a dedicated
// first wave, per §5's ordering guarantee.
func (m *Manager) Members() []*Member {
	var palettes, others []*Member
	for _, mem := range m.members {
		if mem.TypeID == TypePalette {
			palettes = append(palettes, mem)
		} else {
			others = append(others, mem)
		}
	}
	sort.Slice(palettes, func(i, j int) bool { return palettes[i].ID < palettes[j].ID })
	sort.Slice(others, func(i, j int) bool { return others[i].ID < others[j].ID })
	return append(palettes, others...)
}

// Member looks up a single member by id.
func (m *Manager) Member(id uint32) (*Member, bool) {
	mem, ok := m.members[id]
	return mem, ok
}

// KeyTable, NamePool, ScriptContext, CastList and MovieConfig expose the
// resolved metadata structures for journal emission.
func (m *Manager) KeyTable() *KeyTable             { return m.keyTable }
func (m *Manager) NamePool() *NamePool             { return m.names }
func (m *Manager) ScriptContext() *ScriptContextTable { return m.scriptCtx }
func (m *Manager) CastList() *CastList             { return m.castList }
func (m *Manager) MovieConfig() *MovieConfig       { return m.movieConfig }

// Order returns the container's calibrated endianness, needed by callers
// (the Lingo decompiler) that read raw chunk bytes this package already
// resolved the byte order for.
func (m *Manager) Order() binary.ByteOrder { return m.c.Order() }

// Chunks exposes the underlying container's chunk index (id -> canonical
// tag), for callers implementing recovery passes this package doesn't
// itself perform (e.g. extract's dangling-script positional pairing,
// §7).
func (m *Manager) Chunks() map[uint32]string { return m.c.Chunks() }

// ChunkData fetches a chunk's bytes by its raw container id, bypassing
// the key table. Used by callers recovering content the key table
// doesn't (yet) associate with any member.
func (m *Manager) ChunkData(id uint32) ([]byte, bool) { return m.c.GetChunk(id) }

func sortedKeys(m map[uint32]map[string]uint32) []uint32 {
	out := make([]uint32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func flattenScriptContext(t *ScriptContextTable) []uint32 {
	out := make([]uint32, 0, len(t.entries))
	for _, sectionID := range t.entries {
		out = append(out, sectionID)
	}
	return out
}

func itoa(id uint32) string {
	if id == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	return string(buf[i:])
}
