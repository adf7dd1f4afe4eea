package image

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLayerKindRanks(t *testing.T) {
	order := []LayerKind{KindDependencies, KindExtraResources, KindApplicationResources, KindClasses, KindCheckpointState}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s ranks at or after %s", order[i-1], order[i])
		}
	}
	if LayerKind("bogus").Rank() <= KindCheckpointState.Rank() {
		t.Error("unknown kind ranks before a known kind")
	}
}

func TestLayerFingerprint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libs", "a.jar"), "a")
	writeFile(t, filepath.Join(dir, "libs", "b.jar"), "b")
	writeFile(t, filepath.Join(dir, "other", "a.jar"), "a")

	libs := filepath.Join(dir, "libs")
	base := Layer{Kind: KindDependencies, Sources: []string{libs}, Destination: "/home/app/libs"}

	fp1, err := base.Fingerprint()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fp2, _ := base.Fingerprint()
	if fp1 != fp2 {
		t.Error("fingerprint is not stable")
	}

	moved := base
	moved.Destination = "/opt/libs"
	if fp, _ := moved.Fingerprint(); fp == fp1 {
		t.Error("destination does not contribute to the fingerprint")
	}

	writeFile(t, filepath.Join(libs, "b.jar"), "changed")
	if fp, _ := base.Fingerprint(); fp == fp1 {
		t.Error("content change did not change the fingerprint")
	}
}

func TestLayerFingerprintFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	libs := filepath.Join(dir, "libs")
	writeFile(t, filepath.Join(dir, "store", "real.jar"), "v1")
	writeFile(t, filepath.Join(dir, "shared", "util.jar"), "u1")
	if err := os.MkdirAll(libs, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "store", "real.jar"), filepath.Join(libs, "lib.jar")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "shared"), filepath.Join(libs, "shared")); err != nil {
		t.Fatal(err)
	}

	l := Layer{Kind: KindDependencies, Sources: []string{libs}, Destination: "/home/app/libs"}
	fp1, err := l.Fingerprint()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, filepath.Join(dir, "store", "real.jar"), "v2-changed")
	fp2, err := l.Fingerprint()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fp2 == fp1 {
		t.Error("changing a symlinked file did not change the fingerprint")
	}

	writeFile(t, filepath.Join(dir, "shared", "util.jar"), "u2")
	if fp, _ := l.Fingerprint(); fp == fp2 {
		t.Error("changing a file in a symlinked directory did not change the fingerprint")
	}
}

func TestLayerFingerprintExecutableBit(t *testing.T) {
	dir := t.TempDir()
	run := filepath.Join(dir, "run.sh")
	writeFile(t, run, "#!/bin/sh\n")

	l := Layer{Sources: []string{run}, Destination: "/home/app/bin"}
	before, _ := l.Fingerprint()

	if err := os.Chmod(run, 0755); err != nil {
		t.Fatal(err)
	}
	if after, _ := l.Fingerprint(); after == before {
		t.Error("making the source executable did not change the fingerprint")
	}
}

func TestLayerFingerprintSourceOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jar")
	b := filepath.Join(dir, "b.jar")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	fwd, _ := Layer{Sources: []string{a, b}, Destination: "/x"}.Fingerprint()
	rev, _ := Layer{Sources: []string{b, a}, Destination: "/x"}.Fingerprint()
	if fwd != rev {
		t.Error("source order changed the fingerprint")
	}
}

func TestLayerFingerprintMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Layer{Name: "deps", Sources: []string{missing}, Destination: "/libs"}.Fingerprint()

	var srcErr *LayerSourceMissingError
	if !errors.As(err, &srcErr) {
		t.Fatalf("error = %v, want LayerSourceMissingError", err)
	}
	if srcErr.Layer != "deps" || srcErr.Path != missing {
		t.Errorf("error = %+v", srcErr)
	}
	if !errors.Is(err, fs.ErrNotExist) || !errors.Is(err, ErrInput) {
		t.Error("error does not unwrap to ErrInput and fs.ErrNotExist")
	}
}

func TestLogicalName(t *testing.T) {
	if got := (Layer{Destination: "/home/app/libs"}).LogicalName(); got != "libs" {
		t.Errorf("got %q, want libs", got)
	}
	if got := (Layer{Name: "deps", Destination: "/home/app/libs"}).LogicalName(); got != "deps" {
		t.Errorf("got %q, want deps", got)
	}
}
