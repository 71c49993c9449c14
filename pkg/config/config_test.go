package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "notes")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Limit: 3}
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "notes" || s.Limit != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "limit: 0\n")
	err := Load(path, &sample{Limit: 1})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "name: [unclosed\n")
	if err := Load(path, &sample{Limit: 1}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadIfExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := sample{Name: "default", Limit: 5}
	if err := LoadIfExists(missing, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	if err := LoadIfExists(missing, &sample{}); err == nil {
		t.Fatal("missing file should still validate defaults")
	}

	if err := Load(missing, &s); err == nil {
		t.Fatal("Load should fail on a missing file")
	}
}
