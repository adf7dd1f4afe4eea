package image

import (
	_ "crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/opencontainers/go-digest"
)

// Volatility class of a layer.
type LayerKind string

const (
	KindDependencies         LayerKind = "dependency-libraries"
	KindExtraResources       LayerKind = "extra-resources"
	KindApplicationResources LayerKind = "application-resources"
	KindClasses              LayerKind = "application-classes"
	KindCheckpointState      LayerKind = "checkpoint-state"
)

// Rank and build-context bucket per kind, lowest rank first.
var kinds = map[LayerKind]struct {
	rank   int
	bucket string
}{
	KindDependencies:         {0, "libs"},
	KindExtraResources:       {1, "config-dirs"},
	KindApplicationResources: {2, "resources"},
	KindClasses:              {3, "classes"},
	KindCheckpointState:      {4, "cr"},
}

// Returns the volatility rank of k. Layers with lower ranks are emitted
// first. Unknown kinds rank after every known kind.
func (k LayerKind) Rank() int {
	if v, ok := kinds[k]; ok {
		return v.rank
	}
	return len(kinds)
}

// Returns the build-context subdirectory layers of kind k are staged under.
func (k LayerKind) Bucket() string {
	return kinds[k].bucket
}

// Whether k is a known layer kind.
func (k LayerKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// A named filesystem contribution to the image.
type Layer struct {
	Kind        LayerKind // Volatility class.
	Name        string    // Logical name; defaults to the base of Destination.
	Sources     []string  // Host files or directories copied into the layer.
	Destination string    // Absolute path inside the image.
}

// Returns the logical name of the layer.
func (l Layer) LogicalName() string {
	if l.Name != "" {
		return l.Name
	}
	return path.Base(l.Destination)
}

// Returns the content fingerprint of the layer.
//
// The SHA-256 covers every source in sorted order. Directories are walked
// lexically and each regular file contributes its path relative to the
// source root followed by its contents. The destination path comes last, so
// the same content staged elsewhere fingerprints differently.
func (l Layer) Fingerprint() (digest.Digest, error) {
	digester := digest.Canonical.Digester()
	h := digester.Hash()

	sources := slices.Clone(l.Sources)
	slices.Sort(sources)

	for _, src := range sources {
		if err := hashSource(h, src); err != nil {
			return "", &LayerSourceMissingError{Layer: l.LogicalName(), Path: src, Err: err}
		}
	}

	fmt.Fprintf(h, "dest:%s\n", l.Destination)
	return digester.Digest(), nil
}

func hashSource(w io.Writer, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return hashFile(w, src, filepath.Base(src))
	}
	return hashDir(w, src, "")
}

// Hashes the files beneath dir under the slash-separated prefix. Symlinks
// are followed, so the hash covers the content that staging copies.
func hashDir(w io.Writer, dir, prefix string) error {
	dir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}

	// WalkDir visits entries in lexical order.
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = path.Join(prefix, filepath.ToSlash(rel))

		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return hashDir(w, p, rel)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return hashFile(w, p, rel)
	})
}

func hashFile(w io.Writer, p, rel string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "file:%s:%d:%t\n", rel, info.Size(), info.Mode()&0o111 != 0)
	_, err = io.Copy(w, f)
	return err
}
