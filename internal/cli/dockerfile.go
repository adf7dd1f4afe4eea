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
	"github.com/cruciblehq/cruximg/internal/stage"
)

// Represents the 'cruximg dockerfile' command.
type DockerfileCmd struct {
	ProjectFlags `embed:""`

	Output          string `short:"o" help:"Where to write the Dockerfile; \"-\" writes to standard output and, with --build, to the context." default:"-" placeholder:"FILE"`
	Phase           string `help:"Checkpoint/restore phase to synthesize." enum:"checkpoint,final" default:"checkpoint"`
	CheckpointImage string `help:"Checkpoint image the final phase restores from." placeholder:"REF"`
	Build           bool   `help:"Build the image with docker once the Dockerfile is written."`
	Tag             string `short:"t" help:"Image reference to tag the build with; defaults to the manifest image name." placeholder:"REF"`
	Docker          string `help:"Docker executable." default:"docker"`
}

// Executes the dockerfile command.
func (c *DockerfileCmd) Run(ctx context.Context) error {
	p, err := c.stage()
	if err != nil {
		return err
	}

	s := p.descriptor.Strategy()
	if s.Checkpoint != nil {
		s.Checkpoint.Phase = image.CheckpointPhase(c.Phase)
		if c.CheckpointImage != "" {
			s.Checkpoint.CheckpointImage = c.CheckpointImage
		}
	}

	text, err := c.synthesize(p, s)
	if err != nil {
		return err
	}

	target := c.Output
	if target == "-" {
		if !c.Build {
			_, err := fmt.Fprint(os.Stdout, text)
			return err
		}
		target = filepath.Join(c.Context, "Dockerfile")
	}

	if err := os.MkdirAll(filepath.Dir(target), paths.DefaultDirMode); err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(text), paths.DefaultFileMode); err != nil {
		return err
	}
	slog.Info("dockerfile written", "path", target)

	if !c.Build {
		return nil
	}

	tag := p.imageName(c.Tag)
	if tag == "" {
		tag = "app"
	}

	builder := &crac.DockerBuilder{Binary: c.Docker}
	ref, err := builder.Build(ctx, crac.BuildRequest{
		Dockerfile: target,
		ContextDir: c.Context,
		Tag:        tag,
		Platform:   p.descriptor.Platform(),
		BuildArgs:  p.descriptor.BuildArgs(),
	}, os.Stderr)
	if err != nil {
		return err
	}

	slog.Info("image built", "image", ref)
	return nil
}

// Returns the Dockerfile text for the selected phase. The checkpoint phase
// of a checkpoint/restore manifest carries the script COPY and entrypoint,
// and with --build the script is staged next to the layers.
func (c *DockerfileCmd) synthesize(p *project, s image.Strategy) (string, error) {
	synth := dockerfile.New(nil)
	if s.Kind != image.StrategyCheckpointRestore || s.Checkpoint.Phase != image.PhaseCheckpoint {
		return synth.Synthesize(p.descriptor, p.planned, s)
	}

	text, _, err := crac.CheckpointDockerfile(synth, p.descriptor, p.planned, s)
	if err != nil {
		return "", err
	}

	if c.Build {
		script := s.Checkpoint.Script
		if err := stage.AddFile(c.Context, filepath.Join(p.manifest.Dir(), filepath.FromSlash(script)), script); err != nil {
			return "", err
		}
	}
	return text, nil
}
