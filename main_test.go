package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunRendersDemo(t *testing.T) {
	dir := t.TempDir()
	opts := &options{
		input:    filepath.Join("examples", "demo.folio"),
		data:     "@" + filepath.Join("examples", "demo.json"),
		output:   filepath.Join(dir, "out", "demo.pdf"),
		pngDir:   filepath.Join(dir, "png"),
		debug:    filepath.Join(dir, "debug.json"),
		maxPages: -1,
	}
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	pdf, err := os.ReadFile(opts.output)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	pngs, err := filepath.Glob(filepath.Join(opts.pngDir, "*.png"))
	if err != nil || len(pngs) == 0 {
		t.Fatalf("png files: %v %v", pngs, err)
	}

	raw, err := os.ReadFile(opts.debug)
	if err != nil {
		t.Fatalf("read debug: %v", err)
	}
	var dbg struct {
		Pages []json.RawMessage `json:"pages"`
		Meta  struct {
			Title string `json:"title"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(raw, &dbg); err != nil {
		t.Fatalf("debug json: %v", err)
	}
	if len(dbg.Pages) != len(pngs) || dbg.Meta.Title != "Quarterly Sales" {
		t.Fatalf("debug: %d pages, title %q", len(dbg.Pages), dbg.Meta.Title)
	}
}

func TestRunRejectsBadPolicy(t *testing.T) {
	opts := &options{input: filepath.Join("examples", "demo.folio"), policy: "stretch", maxPages: -1}
	if err := run(context.Background(), opts); err == nil {
		t.Fatalf("expected policy error")
	}
}

func TestLoadData(t *testing.T) {
	v, err := loadData(`{"a": [1, 2]}`)
	if err != nil {
		t.Fatalf("inline: %v", err)
	}
	if m, ok := v.(map[string]any); !ok || len(m["a"].([]any)) != 2 {
		t.Fatalf("value %v", v)
	}
	if _, err := loadData("@missing.json"); err == nil {
		t.Fatalf("expected missing file error")
	}
	if v, err := loadData(""); v != nil || err != nil {
		t.Fatalf("empty: %v %v", v, err)
	}
}

func TestCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	if !names["render"] || !names["debug"] {
		t.Fatalf("commands %v", names)
	}
}
