package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/snapkeep/snapkeep/pkg/snapshot"
)

var listFixture = []snapshot.ListRecord{
	{Path: "/snaps/@nixos-1700000000", Generation: 42, OriginTransID: 40},
	{Path: "/snaps/@home-1700000000", Generation: 43, OriginTransID: 41},
}

func TestRenderListText(t *testing.T) {
	var buf bytes.Buffer
	if err := renderList(&buf, listFixture, "text"); err != nil {
		t.Fatalf("renderList: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != "/snaps/@nixos-1700000000: gen=42, otransid=40" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestRenderListJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderList(&buf, listFixture, "json"); err != nil {
		t.Fatalf("renderList: %v", err)
	}

	var decoded []snapshot.ListRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != listFixture[0] {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRenderListYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := renderList(&buf, listFixture, "yaml"); err != nil {
		t.Fatalf("renderList: %v", err)
	}

	var decoded []snapshot.ListRecord
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(decoded) != 2 || decoded[1] != listFixture[1] {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRenderListBadFormat(t *testing.T) {
	if err := renderList(&bytes.Buffer{}, listFixture, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
