package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cruciblehq/cruximg/internal/paths"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Reads the manifest at path on top of the user defaults.
func Load(path string) (*Manifest, error) {
	return load(path, paths.Defaults())
}

// Reads the manifest at path on top of the defaults file. A missing
// defaults file is ignored.
func load(path, defaults string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	m := &Manifest{dir: filepath.Dir(abs)}

	if data, err := os.ReadFile(defaults); err == nil {
		if err := decode(data, m); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrManifest, defaults, err)
		}
		slog.Debug("manifest defaults applied", "path", defaults)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if err := decode(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifest, path, err)
	}

	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifest, path, err)
	}

	slog.Debug("manifest loaded", "path", abs, "layers", len(m.Layers))
	return m, nil
}

// Decodes data into m, rejecting unknown keys. Values already in m survive
// unless data sets them; maps are merged.
func decode(data []byte, m *Manifest) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Returns p resolved against dir unless it is absolute.
func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}
