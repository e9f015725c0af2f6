// Package canonical holds the registry of provider-independent semantic
// parameter fields. The built-in table covers the common image/video
// generation vocabulary; deployments can extend it with YAML overlay files.
package canonical

import (
	"sort"
	"sync/atomic"

	"github.com/Azzot88/artline-sub000/model"
)

// snapshot is an immutable view of the registry indexed by key.
type snapshot struct {
	fields map[string]model.CanonicalFieldDef
	sorted []model.CanonicalFieldDef
}

// Registry is a read-optimized, thread-safe table of canonical field
// definitions. It uses atomic pointer swap for lock-free concurrent reads.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry from the built-in table plus any extra
// definitions. Later definitions win on key collision, so overlays can
// replace built-in entries.
func NewRegistry(extra ...model.CanonicalFieldDef) *Registry {
	r := &Registry{}
	r.Replace(append(Builtin(), extra...))
	return r
}

// Replace atomically swaps the registry contents.
func (r *Registry) Replace(defs []model.CanonicalFieldDef) {
	s := &snapshot{fields: make(map[string]model.CanonicalFieldDef, len(defs))}
	for _, d := range defs {
		s.fields[d.Key] = d
	}
	s.sorted = make([]model.CanonicalFieldDef, 0, len(s.fields))
	for _, d := range s.fields {
		s.sorted = append(s.sorted, d)
	}
	sort.Slice(s.sorted, func(i, j int) bool {
		a, b := s.sorted[i], s.sorted[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		return a.Key < b.Key
	})
	r.snap.Store(s)
}

func (r *Registry) current() *snapshot {
	return r.snap.Load()
}

// Get returns the field definition for the given key.
func (r *Registry) Get(key string) (model.CanonicalFieldDef, bool) {
	d, ok := r.current().fields[key]
	return d, ok
}

// All returns every field definition, ordered by section then key. The
// returned slice is shared; callers must not modify it.
func (r *Registry) All() []model.CanonicalFieldDef {
	return r.current().sorted
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.current().fields)
}

func fptr(v float64) *float64 { return &v }

// Builtin returns the static canonical field table.
func Builtin() []model.CanonicalFieldDef {
	return []model.CanonicalFieldDef{
		{
			Key: "format.aspect_ratio", Label: "Aspect Ratio",
			Type: model.FieldEnum, Section: "format",
			Options: []model.CanonicalOption{
				{Value: "1:1", Label: "Square (1:1)"},
				{Value: "16:9", Label: "Landscape (16:9)"},
				{Value: "9:16", Label: "Portrait (9:16)"},
				{Value: "4:3", Label: "Classic (4:3)"},
				{Value: "3:4", Label: "Classic Portrait (3:4)"},
				{Value: "21:9", Label: "Cinematic (21:9)"},
			},
		},
		{
			Key: "format.output_format", Label: "Output Format",
			Type: model.FieldEnum, Section: "format",
			Options: []model.CanonicalOption{
				{Value: "png", Label: "PNG"},
				{Value: "jpeg", Label: "JPEG"},
				{Value: "webp", Label: "WebP"},
			},
		},
		{
			Key: "format.fps", Label: "Frames Per Second",
			Type: model.FieldInteger, Section: "format",
			Min: fptr(8), Max: fptr(60),
		},
		{
			Key: "resolution.width", Label: "Width",
			Type: model.FieldInteger, Section: "resolution",
			Min: fptr(256), Max: fptr(4096),
		},
		{
			Key: "resolution.height", Label: "Height",
			Type: model.FieldInteger, Section: "resolution",
			Min: fptr(256), Max: fptr(4096),
		},
		{
			Key: "resolution.size", Label: "Size",
			Type: model.FieldEnum, Section: "resolution",
			Options: []model.CanonicalOption{
				{Value: "512x512", Label: "512 x 512"},
				{Value: "768x768", Label: "768 x 768"},
				{Value: "1024x1024", Label: "1024 x 1024"},
				{Value: "2048x2048", Label: "2048 x 2048"},
			},
		},
		{
			Key: "quality.steps", Label: "Steps",
			Type: model.FieldInteger, Section: "quality",
			Min: fptr(1), Max: fptr(150),
		},
		{
			Key: "quality.guidance_scale", Label: "Guidance Scale",
			Type: model.FieldNumber, Section: "quality",
			Min: fptr(0), Max: fptr(30),
		},
		{
			Key: "quality.num_outputs", Label: "Number of Outputs",
			Type: model.FieldInteger, Section: "quality",
			Min: fptr(1), Max: fptr(8),
		},
		{
			Key: "prompt.text", Label: "Prompt",
			Type: model.FieldString, Section: "prompt",
		},
		{
			Key: "prompt.negative", Label: "Negative Prompt",
			Type: model.FieldString, Section: "prompt",
		},
		{
			Key: "advanced.seed", Label: "Seed",
			Type: model.FieldInteger, Section: "advanced",
		},
		{
			Key: "advanced.scheduler", Label: "Scheduler",
			Type: model.FieldEnum, Section: "advanced",
			Options: []model.CanonicalOption{
				{Value: "euler", Label: "Euler"},
				{Value: "euler_a", Label: "Euler Ancestral"},
				{Value: "ddim", Label: "DDIM"},
				{Value: "dpmpp_2m", Label: "DPM++ 2M"},
				{Value: "lcm", Label: "LCM"},
			},
		},
		{
			Key: "advanced.strength", Label: "Strength",
			Type: model.FieldNumber, Section: "advanced",
			Min: fptr(0), Max: fptr(1),
		},
		{
			Key: "advanced.duration", Label: "Duration",
			Type: model.FieldNumber, Section: "advanced",
			Min: fptr(1), Max: fptr(30),
		},
		{
			Key: "input.image", Label: "Source Image",
			Type: model.FieldImage, Section: "input",
		},
	}
}
