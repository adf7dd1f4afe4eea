package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruximg/internal/crac"
	"github.com/cruciblehq/cruximg/internal/dockerfile"
	"github.com/cruciblehq/cruximg/internal/image"
	"github.com/cruciblehq/cruximg/internal/paths"
	"github.com/cruciblehq/cruximg/internal/runtime"
	"github.com/cruciblehq/cruximg/internal/stage"
)

// Represents the 'cruximg checkpoint' command.
type CheckpointCmd struct {
	ProjectFlags `embed:""`

	Output    string `short:"o" help:"Directory the Dockerfiles and image archives are written to; defaults to the user cache." type:"path" placeholder:"DIR"`
	Image     string `short:"t" help:"Repository to tag both images under; defaults to the manifest image name." placeholder:"REF"`
	Build     bool   `help:"Build both images with docker."`
	Snapshot  bool   `help:"Run the checkpoint on containerd between the two builds. Implies --build."`
	Docker    string `help:"Docker executable." default:"docker"`
	Address   string `help:"containerd socket address." default:"/run/containerd/containerd.sock"`
	Namespace string `help:"containerd namespace." default:"cruximg"`
}

// Executes the checkpoint command.
//
// Stages the context together with the checkpoint script and runs the
// pipeline. Without --build only the two Dockerfiles are written.
func (c *CheckpointCmd) Run(ctx context.Context) error {
	p, err := c.stage()
	if err != nil {
		return err
	}

	s := p.descriptor.Strategy()
	if s.Kind != image.StrategyCheckpointRestore {
		return &image.IncompatibleStrategyError{Runtime: p.descriptor.Runtime(), Strategy: s.Kind}
	}

	// The script is looked up next to the manifest and staged at the same
	// relative path, which is where the checkpoint Dockerfile copies it from.
	script := s.Checkpoint.Script
	if err := stage.AddFile(c.Context, filepath.Join(p.manifest.Dir(), filepath.FromSlash(script)), script); err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = paths.Checkpoints(filepath.Base(p.manifest.Dir()))
	}

	pipeline := &crac.Pipeline{
		Synth:      dockerfile.New(nil),
		Sink:       os.Stderr,
		ContextDir: c.Context,
		OutputDir:  output,
		Image:      p.imageName(c.Image),
	}

	if c.Build || c.Snapshot {
		pipeline.Builder = &crac.DockerBuilder{Binary: c.Docker}
	}

	if c.Snapshot {
		rt, err := runtime.New(c.Address, c.Namespace)
		if err != nil {
			return err
		}
		defer rt.Close()
		pipeline.Runner = rt
	}

	res, err := pipeline.Run(ctx, p.descriptor, p.planned, s)
	if err != nil {
		return err
	}

	slog.Info("checkpoint build finished",
		"checkpoint-dockerfile", res.CheckpointDockerfile,
		"dockerfile", res.FinalDockerfile,
	)
	fmt.Println(res.FinalImage)
	return nil
}
