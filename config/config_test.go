package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/folio/band"
)

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse(strings.NewReader(`
max_pages = 20
oversize_policy = "clip"
log_level = "debug"
`))
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxPages != 20 || s.PageSize != "A4" || !s.DisplayWarning {
		t.Fatalf("settings = %+v", s)
	}
	if p, _ := s.Policy(); p != band.PolicyClip {
		t.Fatalf("policy = %v", p)
	}
	if l, _ := s.Level(); l != slog.LevelDebug {
		t.Fatalf("level = %v", l)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse(strings.NewReader(`oversize_policy = "shrink"`))
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Parse(strings.NewReader(`pages = 3`)); err == nil || !strings.Contains(err.Error(), "未知的配置项") {
		t.Fatalf("unknown key err = %v", err)
	}
	if _, err := Parse(strings.NewReader(`max_pages = -1`)); err == nil {
		t.Fatal("negative max_pages accepted")
	}
	if _, err := Parse(strings.NewReader(`log_level = "loud"`)); err == nil {
		t.Fatal("bad level accepted")
	}
}

func TestLoad(t *testing.T) {
	s, err := Load("")
	if err != nil || s != Default() {
		t.Fatalf("empty path = %+v, %v", s, err)
	}

	path := filepath.Join(t.TempDir(), "folio.toml")
	if err := os.WriteFile(path, []byte("display_warning = false\nmargin = \"10mm\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.DisplayWarning || s.Margin != "10mm" {
		t.Fatalf("settings = %+v", s)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}
