package cli

import (
	"log/slog"

	"github.com/cruciblehq/cruximg/internal/image"
	"github.com/cruciblehq/cruximg/internal/manifest"
	"github.com/cruciblehq/cruximg/internal/stage"
)

// Flags shared by the commands that work on a manifest.
type ProjectFlags struct {
	Manifest string `short:"f" help:"Image manifest." default:"cruximg.yaml" type:"path"`
	Context  string `short:"C" help:"Directory the build context is staged in." default:"build/docker/context" type:"path"`
}

// A loaded manifest with its descriptor and planned layers.
type project struct {
	manifest   *manifest.Manifest
	descriptor *image.Descriptor
	planned    []image.Layer
}

// Loads the manifest, builds the descriptor and plans its layers. Every
// configuration error surfaces here, before anything is staged.
func (f *ProjectFlags) load() (*project, error) {
	m, err := manifest.Load(f.Manifest)
	if err != nil {
		return nil, err
	}

	d, err := m.Descriptor()
	if err != nil {
		return nil, err
	}

	planned, err := image.Plan(d.Layers())
	if err != nil {
		return nil, err
	}

	return &project{manifest: m, descriptor: d, planned: planned}, nil
}

// Loads the project and stages its build context.
func (f *ProjectFlags) stage() (*project, error) {
	p, err := f.load()
	if err != nil {
		return nil, err
	}

	if _, err := stage.Materialize(f.Context, p.planned); err != nil {
		return nil, err
	}

	slog.Info("build context staged", "path", f.Context, "layers", len(p.planned))
	return p, nil
}

// Returns the repository images are tagged under: the flag value, then the
// manifest's image name.
func (p *project) imageName(flag string) string {
	if flag != "" {
		return flag
	}
	return p.manifest.Image.Name
}
