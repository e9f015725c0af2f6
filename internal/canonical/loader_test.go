package canonical

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azzot88/artline-sub000/model"
)

func writeOverlay(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing overlay: %v", err)
	}
	return path
}

func TestLoader_loadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeOverlay(t, dir, "video.yaml", `
fields:
  - key: video.motion_strength
    label: Motion Strength
    type: number
    section: video
    min: 0
    max: 1
  - key: video.camera_motion
    label: Camera Motion
    type: enum
    section: video
    options:
      - value: static
        label: Static
      - value: pan_left
        label: Pan Left
`)

	fields, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(fields))
	}
	if fields[0].Type != model.FieldNumber || fields[0].Min == nil || *fields[0].Min != 0 {
		t.Errorf("field = %+v", fields[0])
	}
	if len(fields[1].Options) != 2 {
		t.Errorf("options = %+v", fields[1].Options)
	}
}

func TestLoader_loadAll(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeOverlay(t, dir, "a.yaml", "fields:\n  - {key: extra.one, label: One, type: string, section: extra}\n")
	writeOverlay(t, sub, "b.yml", "fields:\n  - {key: extra.two, label: Two, type: boolean, section: extra}\n")
	writeOverlay(t, dir, "notes.txt", "not yaml, skipped")

	fields, err := NewLoader().LoadAll([]string{dir})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("fields = %+v, want both overlay files loaded", fields)
	}
}

func TestLoader_loadAll_missingDirectory(t *testing.T) {
	if _, err := NewLoader().LoadAll([]string{"/no/such/dir"}); err == nil {
		t.Error("LoadAll() accepted a missing directory")
	}
}

func TestLoader_validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing key",
			"fields:\n  - {label: X, type: string, section: extra}\n",
			"key is required",
		},
		{
			"undotted key",
			"fields:\n  - {key: plainname, label: X, type: string, section: extra}\n",
			"dotted",
		},
		{
			"unknown type",
			"fields:\n  - {key: extra.x, label: X, type: color, section: extra}\n",
			"unknown type",
		},
		{
			"enum without options",
			"fields:\n  - {key: extra.x, label: X, type: enum, section: extra}\n",
			"option set",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeOverlay(t, dir, "bad.yaml", c.content)
			_, err := NewLoader().LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("error = %v, want substring %q", err, c.wantErr)
			}
		})
	}
}
