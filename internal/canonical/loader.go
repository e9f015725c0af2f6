package canonical

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Azzot88/artline-sub000/model"
)

// overlayFile is the on-disk shape of a canonical field overlay.
type overlayFile struct {
	Fields []model.CanonicalFieldDef `yaml:"fields"`
}

// Loader scans directories for YAML overlay files declaring extra canonical
// fields.
type Loader struct{}

// NewLoader creates a new overlay Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadAll recursively scans directories for *.yaml and *.yml files and
// collects the field definitions they declare, in file order.
func (l *Loader) LoadAll(directories []string) ([]model.CanonicalFieldDef, error) {
	var fields []model.CanonicalFieldDef

	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}

			loaded, err := l.LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			fields = append(fields, loaded...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}

	return fields, nil
}

// LoadFile loads and validates a single YAML overlay file.
func (l *Loader) LoadFile(path string) ([]model.CanonicalFieldDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, f := range file.Fields {
		if err := validateField(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return file.Fields, nil
}

// validateField checks the structural invariants of one field definition.
func validateField(f model.CanonicalFieldDef) error {
	if f.Key == "" {
		return fmt.Errorf("field key is required")
	}
	parts := strings.Split(f.Key, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("field key %q must be dotted section.name", f.Key)
	}
	switch f.Type {
	case model.FieldString, model.FieldInteger, model.FieldNumber,
		model.FieldBoolean, model.FieldEnum, model.FieldArray,
		model.FieldObject, model.FieldImage:
	default:
		return fmt.Errorf("field %q has unknown type %q", f.Key, f.Type)
	}
	if f.Type == model.FieldEnum && len(f.Options) == 0 {
		return fmt.Errorf("enum field %q needs an option set", f.Key)
	}
	return nil
}
