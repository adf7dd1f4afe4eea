package stage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/cruximg/internal/image"
	"github.com/cruciblehq/cruximg/internal/paths"
)

// Directory under the context root holding one stamp per staged layer.
const fingerprintDir = ".fingerprints"

// Modification time of every staged entry.
var epoch = time.Unix(0, 0)

// Returns the slash-separated path, relative to the context root, at which
// the layer with the given planned index is staged.
//
// The synthesizer uses the same path as the COPY source, which keeps the
// staged tree and the emitted instructions in step.
func StagedPath(index int, l image.Layer) (string, error) {
	if l.Kind == image.KindExtraResources {
		name, err := image.ResourceConfigName(index, l.LogicalName())
		if err != nil {
			return "", err
		}
		return path.Join(l.Kind.Bucket(), name), nil
	}

	dest := strings.TrimPrefix(path.Clean("/"+l.Destination), "/")
	return path.Join(l.Kind.Bucket(), dest), nil
}

// Stages planned layers under root, in order, and returns root.
//
// File sources are copied into the staged directory under their base name;
// directory sources have their contents copied recursively. A missing
// source fails with [image.LayerSourceMissingError]. Layers whose staged
// directories would nest fail with [image.OverlappingLayerError] before
// anything is written. Layers already staged by an earlier run with the same
// fingerprint are skipped.
func Materialize(root string, layers []image.Layer) (string, error) {
	if err := image.CheckDestinations(layers); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(root, fingerprintDir), paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	for i, l := range layers {
		if err := materializeLayer(root, i, l); err != nil {
			return "", err
		}
	}

	if err := normalize(root); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	return root, nil
}

// Copies the host file src to the slash-separated path rel under root, for
// files the Dockerfile refers to outside of any layer, such as the
// checkpoint script. The executable bit of src is kept.
func AddFile(root, src, rel string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &image.LayerSourceMissingError{Layer: rel, Path: src, Err: err}
		}
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileSystemOperation, src)
	}

	if err := copyFile(src, filepath.Join(root, filepath.FromSlash(rel)), info); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if err := normalize(root); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	slog.Debug("file staged", "path", rel)
	return nil
}

func materializeLayer(root string, index int, l image.Layer) error {
	rel, err := StagedPath(index, l)
	if err != nil {
		return err
	}

	fp, err := l.Fingerprint()
	if err != nil {
		return err
	}

	dir := filepath.Join(root, filepath.FromSlash(rel))
	stamp := filepath.Join(root, fingerprintDir, fmt.Sprintf("%s-%d", l.Kind.Bucket(), index))

	if upToDate(stamp, dir, fp) {
		slog.Debug("layer up to date", "layer", l.LogicalName(), "path", rel)
		return nil
	}

	slog.Debug("staging layer", "layer", l.LogicalName(), "kind", l.Kind, "path", rel, "fingerprint", fp)

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if err := mkdir(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	for _, src := range l.Sources {
		if err := copySource(src, dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &image.LayerSourceMissingError{Layer: l.LogicalName(), Path: src, Err: err}
			}
			return fmt.Errorf("%w: layer %q: %w", ErrFileSystemOperation, l.LogicalName(), err)
		}
	}

	if err := writeFile(stamp, strings.NewReader(fp.String()), paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	return nil
}

// Whether the stamp records fp and the staged directory still exists.
func upToDate(stamp, dir string, fp digest.Digest) bool {
	recorded, err := os.ReadFile(stamp)
	if err != nil || !bytes.Equal(recorded, []byte(fp.String())) {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Copies a file into dir, or the contents of a directory beneath dir.
func copySource(src, dir string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(src, filepath.Join(dir, filepath.Base(src)), info)
	}

	if src, err = filepath.EvalSymlinks(src); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return mkdir(target)
		}

		// Symlinks are staged as the content they point to.
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return copySource(p, target)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(p, target, info)
	})
}

func copyFile(src, dst string, info fs.FileInfo) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	mode := paths.DefaultFileMode
	if info.Mode()&0o111 != 0 {
		mode = paths.ExecFileMode
	}
	return writeFile(dst, f, mode)
}

// Writes r to path with exactly the given mode, regardless of umask.
func writeFile(p string, r io.Reader, mode fs.FileMode) error {
	if err := mkdir(filepath.Dir(p)); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(p, mode)
}

func mkdir(p string) error {
	if err := os.MkdirAll(p, paths.DefaultDirMode); err != nil {
		return err
	}
	return os.Chmod(p, paths.DefaultDirMode)
}

// Resets the modification time of every entry under root to the epoch.
// Entries are visited deepest first so that touching a child does not move
// its parent's time afterwards.
func normalize(root string) error {
	var entries []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink == 0 {
			entries = append(entries, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range slices.Backward(entries) {
		if err := os.Chtimes(p, epoch, epoch); err != nil {
			return err
		}
	}
	return nil
}
