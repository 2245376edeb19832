package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelworld.ai/configs"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/logic/structure"
)

type Catalogs struct {
	Blocks     BlockCatalog
	Structures StructureCatalog

	// Source is the config directory the catalogs were read from, or
	// "embedded".
	Source string
}

type BlockCatalog struct {
	Defs   map[uint16]BlockDef
	Index  map[string]uint16
	Digest string
	// Raw is blocks.json as loaded.
	Raw []byte `json:"-"`
}

type BlockDef struct {
	ID          uint16 `json:"id"`
	Name        string `json:"name"`
	SeeThrough  bool   `json:"see_through,omitempty"`
	Passable    bool   `json:"passable,omitempty"`
	RayPassable bool   `json:"ray_passable,omitempty"`
	Translucent bool   `json:"translucent,omitempty"`
	AtlasRow    *int   `json:"atlas_row,omitempty"`
}

type Trigger string

const (
	TriggerPlace  Trigger = "place"
	TriggerRemove Trigger = "remove"
	TriggerNone   Trigger = "none"
)

type StructureCatalog struct {
	ByID   map[string]StructureDef
	Digest string
}

type StructureDef struct {
	Pattern structure.Pattern
	Trigger Trigger
	Remap   map[uint16]uint16
}

type structureFile struct {
	ID        string            `json:"id"`
	Legend    map[string]string `json:"legend"`
	Layers    [][]string        `json:"layers"`
	Rotations []int             `json:"rotations,omitempty"`
	Trigger   string            `json:"trigger,omitempty"`
	Remap     map[string]string `json:"remap,omitempty"`
}

const Embedded = "embedded"

// Load reads blocks.json, structures/*.json and schemas/ from configDir.
// An empty or missing configDir falls back to the catalogs built into the
// binary.
func Load(configDir string) (*Catalogs, error) {
	if configDir == "" {
		return LoadFS(configs.FS, Embedded)
	}
	if _, err := os.Stat(configDir); errors.Is(err, fs.ErrNotExist) {
		return LoadFS(configs.FS, Embedded)
	}
	return LoadFS(os.DirFS(configDir), configDir)
}

// LoadFS reads the catalogs from the root of fsys.
func LoadFS(fsys fs.FS, source string) (*Catalogs, error) {
	l := loader{fsys: fsys, schemas: map[string]*jsonschema.Schema{}}
	c := Catalogs{Source: source}
	if err := l.loadBlocks(&c.Blocks); err != nil {
		return nil, err
	}
	if err := l.loadStructures(c.Blocks, &c.Structures); err != nil {
		return nil, err
	}
	return &c, nil
}

type loader struct {
	fsys    fs.FS
	schemas map[string]*jsonschema.Schema
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// schema compiles schemas/<name> once. A missing schema file yields nil and
// skips validation.
func (l *loader) schema(name string) (*jsonschema.Schema, error) {
	if s, ok := l.schemas[name]; ok {
		return s, nil
	}
	raw, err := fs.ReadFile(l.fsys, path.Join("schemas", name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.schemas[name] = nil
			return nil, nil
		}
		return nil, err
	}
	url := "file:///configs/schemas/" + name
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	l.schemas[name] = s
	return s, nil
}

func (l *loader) validate(schemaName string, raw []byte) error {
	s, err := l.schema(schemaName)
	if err != nil || s == nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

func (l *loader) loadBlocks(out *BlockCatalog) error {
	raw, err := fs.ReadFile(l.fsys, "blocks.json")
	if err != nil {
		return err
	}
	if err := l.validate("blocks.schema.json", raw); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Digest = sha256Hex(raw)
	out.Raw = raw

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = make(map[uint16]BlockDef, len(defs))
	out.Index = make(map[string]uint16, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("blocks.json: empty name for id %d", d.ID)
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %d", d.ID)
		}
		if _, dup := out.Index[d.Name]; dup {
			return fmt.Errorf("blocks.json: duplicate name %s", d.Name)
		}
		out.Defs[d.ID] = d
		out.Index[d.Name] = d.ID
	}

	// The sentinels are fixed by the chunk file format.
	if id, ok := out.Index["AIR"]; !ok || id != block.Air {
		return fmt.Errorf("blocks.json: AIR must have id %d", block.Air)
	}
	if id, ok := out.Index["UNKNOWN"]; !ok || id != block.Unknown {
		return fmt.Errorf("blocks.json: UNKNOWN must have id %d", block.Unknown)
	}
	return nil
}

func (c BlockCatalog) SeeThrough(id uint16) bool  { return c.Defs[id].SeeThrough }
func (c BlockCatalog) Passable(id uint16) bool    { return c.Defs[id].Passable }
func (c BlockCatalog) RayPassable(id uint16) bool { return c.Defs[id].RayPassable }
func (c BlockCatalog) Translucent(id uint16) bool { return c.Defs[id].Translucent }

func (c BlockCatalog) AtlasRow(id uint16) int {
	if d, ok := c.Defs[id]; ok && d.AtlasRow != nil {
		return *d.AtlasRow
	}
	return int(id)
}

func (c BlockCatalog) Name(id uint16) string {
	if d, ok := c.Defs[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("#%d", id)
}

func (c BlockCatalog) Lookup(name string) (uint16, bool) {
	id, ok := c.Index[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

func (l *loader) loadStructures(blocks BlockCatalog, out *StructureCatalog) error {
	out.ByID = map[string]StructureDef{}
	if _, err := fs.Stat(l.fsys, "structures"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	var files []string
	err := fs.WalkDir(l.fsys, "structures", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	h := sha256.New()
	for _, p := range files {
		raw, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return err
		}
		name := path.Base(p)
		if err := l.validate("structure.schema.json", raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		var f structureFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		def, err := buildStructure(f, blocks)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := out.ByID[def.Pattern.ID]; dup {
			return fmt.Errorf("%s: duplicate structure id %s", name, def.Pattern.ID)
		}
		out.ByID[def.Pattern.ID] = def
		h.Write(raw)
	}
	out.Digest = hex.EncodeToString(h.Sum(nil))
	return nil
}

func buildStructure(f structureFile, blocks BlockCatalog) (StructureDef, error) {
	if f.ID == "" {
		return StructureDef{}, fmt.Errorf("empty id")
	}
	if len(f.Layers) == 0 || len(f.Layers[0]) == 0 {
		return StructureDef{}, fmt.Errorf("structure %s: no layers", f.ID)
	}
	depth := len(f.Layers)
	height := len(f.Layers[0])
	width := len([]rune(f.Layers[0][0]))

	legend := map[rune]uint16{}
	for k, name := range f.Legend {
		r := []rune(k)
		if len(r) != 1 {
			return StructureDef{}, fmt.Errorf("structure %s: legend key %q must be one character", f.ID, k)
		}
		id, ok := blocks.Lookup(name)
		if !ok {
			return StructureDef{}, fmt.Errorf("structure %s: unknown block %s", f.ID, name)
		}
		legend[r[0]] = id
	}

	cells := make([]uint16, 0, depth*height*width)
	for z, layer := range f.Layers {
		if len(layer) != height {
			return StructureDef{}, fmt.Errorf("structure %s: layer %d has %d rows want %d", f.ID, z, len(layer), height)
		}
		for y, row := range layer {
			rs := []rune(row)
			if len(rs) != width {
				return StructureDef{}, fmt.Errorf("structure %s: layer %d row %d has %d cells want %d", f.ID, z, y, len(rs), width)
			}
			for _, r := range rs {
				id, ok := legend[r]
				if !ok {
					id = structure.Wildcard
				}
				cells = append(cells, id)
			}
		}
	}
	p, err := structure.NewPattern(f.ID, depth, height, width, cells)
	if err != nil {
		return StructureDef{}, err
	}
	// Rotations may be given as quarter turns or degrees; none means all four.
	if len(f.Rotations) > 0 {
		seen := [4]bool{}
		for _, r := range f.Rotations {
			q, ok := structure.NormalizeRotation(r)
			if !ok {
				return StructureDef{}, fmt.Errorf("structure %s: bad rotation %d", f.ID, r)
			}
			if !seen[q] {
				seen[q] = true
				p.Rotations = append(p.Rotations, q)
			}
		}
		sort.Ints(p.Rotations)
	}

	trigger := Trigger(f.Trigger)
	switch trigger {
	case "":
		trigger = TriggerNone
	case TriggerPlace, TriggerRemove, TriggerNone:
	default:
		return StructureDef{}, fmt.Errorf("structure %s: bad trigger %q", f.ID, f.Trigger)
	}

	remap := map[uint16]uint16{}
	for from, to := range f.Remap {
		fid, ok := blocks.Lookup(from)
		if !ok {
			return StructureDef{}, fmt.Errorf("structure %s: unknown remap block %s", f.ID, from)
		}
		tid, ok := blocks.Lookup(to)
		if !ok {
			return StructureDef{}, fmt.Errorf("structure %s: unknown remap block %s", f.ID, to)
		}
		remap[fid] = tid
	}
	return StructureDef{Pattern: p, Trigger: trigger, Remap: remap}, nil
}

// ByTrigger lists the structures fired by t, ordered by id.
func (c StructureCatalog) ByTrigger(t Trigger) []StructureDef {
	var out []StructureDef
	for _, d := range c.ByID {
		if d.Trigger == t {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern.ID < out[j].Pattern.ID })
	return out
}
