package paths

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckpointsUnderCache(t *testing.T) {
	dir := Checkpoints("main")
	if !strings.HasPrefix(dir, Cache()+string(filepath.Separator)) {
		t.Fatalf("Checkpoints = %q, want it under %q", dir, Cache())
	}
	if filepath.Base(dir) != "main" {
		t.Fatalf("Checkpoints base = %q, want main", filepath.Base(dir))
	}
}

func TestDefaultsFileName(t *testing.T) {
	if filepath.Base(Defaults()) != "defaults.yaml" {
		t.Fatalf("Defaults = %q, want defaults.yaml", Defaults())
	}
	if filepath.Base(filepath.Dir(Defaults())) != toolName {
		t.Fatalf("Defaults = %q, want parent %q", Defaults(), toolName)
	}
}
