package crac

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"

	"github.com/cruciblehq/cruximg/internal/dockerfile"
	"github.com/cruciblehq/cruximg/internal/editor"
	"github.com/cruciblehq/cruximg/internal/image"
	"github.com/cruciblehq/cruximg/internal/paths"
)

const (
	checkpointDockerfile = "Dockerfile.checkpoint"
	finalDockerfile      = "Dockerfile"
	buildArchive         = "checkpoint-build.tar"
	committedArchive     = "checkpoint.tar"
	snapshotArchive      = "cr.tar"
	defaultImage         = "app"
)

// Two-phase checkpoint/restore build.
//
// Builder and Runner are optional. Without a Builder only the Dockerfiles
// are produced and the image references are the ones the images would be
// tagged with. A Runner requires a Builder, since it runs the image the
// Builder produced.
type Pipeline struct {
	Synth      *dockerfile.Synthesizer // Synthesizer shared by both phases; created on first run when nil.
	Builder    Builder                 // Image builder, optional.
	Runner     Runner                  // Checkpoint runner, optional.
	Sink       io.Writer               // Live output of the collaborators, optional.
	ContextDir string                  // Staged build context.
	OutputDir  string                  // Where Dockerfiles and archives are written.
	Image      string                  // Repository of both images; defaults to "app".
}

// Outcome of a pipeline run. On failure the fields of the phases that
// completed are filled in and Transcript holds the output captured so far.
type Result struct {
	CheckpointDockerfile string // Path of the phase one Dockerfile.
	FinalDockerfile      string // Path of the phase two Dockerfile.
	CheckpointImage      string // Reference of the checkpoint image.
	FinalImage           string // Reference of the final image.
	Transcript           string // Everything the builder and runner wrote.
}

// Runs both phases for d and its planned layers with strategy s.
//
// Phase two begins only after phase one has returned the checkpoint image
// reference. Either phase failing yields a [PipelineError] naming it; a
// phase one failure means no final Dockerfile is written and nothing of
// phase two reaches the transcript.
func (p *Pipeline) Run(ctx context.Context, d *image.Descriptor, planned []image.Layer, s image.Strategy) (*Result, error) {
	res := &Result{}
	tee := NewTee(p.Sink)
	if p.Synth == nil {
		p.Synth = dockerfile.New(nil)
	}

	checkpointRef, finalRef, err := p.references(s)
	if err != nil {
		return res, &PipelineError{Phase: image.PhaseCheckpoint, Err: err}
	}

	checkpointRef, err = p.checkpoint(ctx, tee, d, planned, s, checkpointRef, res)
	res.Transcript = tee.Transcript()
	if err != nil {
		return res, &PipelineError{Phase: image.PhaseCheckpoint, Err: err}
	}
	res.CheckpointImage = checkpointRef

	err = p.final(ctx, tee, d, planned, s, checkpointRef, finalRef, res)
	res.Transcript = tee.Transcript()
	if err != nil {
		return res, &PipelineError{Phase: image.PhaseFinal, Err: err}
	}

	slog.Info("checkpoint pipeline complete",
		"checkpoint", res.CheckpointImage,
		"final", res.FinalImage,
	)
	return res, nil
}

// Returns the tags of the checkpoint and final images. A tagged repository
// gets "-checkpoint" appended to its tag; an untagged one is tagged
// "checkpoint" and "latest". A checkpoint image configured on the strategy
// takes precedence.
func (p *Pipeline) references(s image.Strategy) (string, string, error) {
	repo := p.Image
	if repo == "" {
		repo = defaultImage
	}

	named, err := reference.ParseNormalizedNamed(repo)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w: %q: %w", image.ErrConfiguration, image.ErrInvalidReference, repo, err)
	}
	final := reference.TagNameOnly(named)

	tag := "checkpoint"
	if tagged, ok := final.(reference.Tagged); ok && tagged.Tag() != "latest" {
		tag = tagged.Tag() + "-checkpoint"
	}
	checkpoint, err := reference.WithTag(reference.TrimNamed(named), tag)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w: %w", image.ErrConfiguration, image.ErrInvalidReference, err)
	}

	ref := reference.FamiliarString(checkpoint)
	if s.Checkpoint != nil && s.Checkpoint.CheckpointImage != "" {
		ref = s.Checkpoint.CheckpointImage
	}
	return ref, reference.FamiliarString(final), nil
}

// Phase one. Returns the reference of the checkpoint image.
func (p *Pipeline) checkpoint(ctx context.Context, out io.Writer, d *image.Descriptor, planned []image.Layer, s image.Strategy, ref string, res *Result) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if s.Kind != image.StrategyCheckpointRestore {
		return "", &image.IncompatibleStrategyError{Runtime: d.Runtime(), Strategy: s.Kind}
	}
	if p.Runner != nil && p.Builder == nil {
		return "", ErrNoBuilder
	}

	s = s.WithDefaults()
	cfg := s.Checkpoint

	text, trigger, err := CheckpointDockerfile(p.Synth, d, planned, s)
	if err != nil {
		return "", err
	}

	if p.ContextDir != "" {
		if _, err := os.Stat(filepath.Join(p.ContextDir, filepath.FromSlash(cfg.Script))); err != nil {
			return "", &image.LayerSourceMissingError{Layer: "checkpoint script", Path: cfg.Script, Err: err}
		}
	}

	res.CheckpointDockerfile, err = p.write(checkpointDockerfile, text)
	if err != nil {
		return "", err
	}
	slog.Info("checkpoint dockerfile written", "path", res.CheckpointDockerfile)

	if p.Builder == nil {
		return ref, nil
	}

	req := BuildRequest{
		Dockerfile: res.CheckpointDockerfile,
		ContextDir: p.ContextDir,
		Tag:        ref,
		Platform:   d.Platform(),
		BuildArgs:  d.BuildArgs(),
	}
	if p.Runner != nil {
		req.Archive = filepath.Join(p.OutputDir, buildArchive)
	}

	built, err := p.Builder.Build(ctx, req, out)
	if err != nil {
		return "", err
	}
	if p.Runner == nil {
		return built, nil
	}

	committed := filepath.Join(p.OutputDir, committedArchive)
	ref, err = p.Runner.Checkpoint(ctx, CheckpointRequest{
		Archive:         req.Archive,
		Image:           built,
		Command:         trigger,
		SnapshotDir:     cfg.SnapshotDir,
		Platform:        d.Platform(),
		Output:          committed,
		SnapshotArchive: filepath.Join(p.OutputDir, snapshotArchive),
	}, out)
	if err != nil {
		return "", err
	}

	if err := p.Builder.Load(ctx, committed, out); err != nil {
		return "", err
	}
	return ref, nil
}

// Returns the complete phase one Dockerfile for d and the command that
// triggers the checkpoint inside the built image.
//
// The text is the custom checkpoint Dockerfile when s configures one, or is
// synthesized. The checkpoint script is copied in below the
// [dockerfile.CheckpointScriptAnchor] line and becomes the entrypoint; a
// text without the anchor fails with [editor.EditTargetNotFoundError].
func CheckpointDockerfile(synth *dockerfile.Synthesizer, d *image.Descriptor, planned []image.Layer, s image.Strategy) (string, []string, error) {
	if s.Kind != image.StrategyCheckpointRestore {
		return "", nil, &image.IncompatibleStrategyError{Runtime: d.Runtime(), Strategy: s.Kind}
	}
	if synth == nil {
		synth = dockerfile.New(nil)
	}

	s = s.WithDefaults()
	s.Checkpoint.Phase = image.PhaseCheckpoint
	cfg := s.Checkpoint

	text, err := checkpointText(synth, d, planned, s)
	if err != nil {
		return "", nil, err
	}

	script := path.Join(d.WorkDir(), path.Base(cfg.Script))
	trigger := append([]string{script}, cfg.Command...)
	copyInstr := fmt.Sprintf("COPY %s %s", cfg.Script, script)
	if d.CopyLink() {
		copyInstr = fmt.Sprintf("COPY --link %s %s", cfg.Script, script)
	}

	text, err = synth.Editor().Apply(text, editor.InsertAfter(dockerfile.CheckpointScriptAnchor,
		copyInstr,
		"ENTRYPOINT "+dockerfile.ExecForm(trigger),
	))
	if err != nil {
		return "", nil, err
	}
	return text, trigger, nil
}

// Returns the custom checkpoint Dockerfile when one is configured, or
// synthesizes it.
func checkpointText(synth *dockerfile.Synthesizer, d *image.Descriptor, planned []image.Layer, s image.Strategy) (string, error) {
	custom := s.Checkpoint.CustomDockerfile
	if custom == "" {
		return synth.Synthesize(d, planned, s)
	}

	b, err := os.ReadFile(custom)
	if err != nil {
		return "", fmt.Errorf("%w: custom checkpoint dockerfile: %w", image.ErrInput, err)
	}
	slog.Debug("using custom checkpoint dockerfile", "path", custom)
	return string(b), nil
}

// Phase two.
func (p *Pipeline) final(ctx context.Context, out io.Writer, d *image.Descriptor, planned []image.Layer, s image.Strategy, checkpointRef, ref string, res *Result) error {
	s = s.WithDefaults()
	s.Checkpoint.Phase = image.PhaseFinal
	s.Checkpoint.CheckpointImage = checkpointRef

	text, err := p.Synth.Synthesize(d, planned, s)
	if err != nil {
		return err
	}

	res.FinalDockerfile, err = p.write(finalDockerfile, text)
	if err != nil {
		return err
	}
	slog.Info("final dockerfile written", "path", res.FinalDockerfile)

	res.FinalImage = ref
	if p.Builder == nil {
		return nil
	}

	res.FinalImage, err = p.Builder.Build(ctx, BuildRequest{
		Dockerfile: res.FinalDockerfile,
		ContextDir: p.ContextDir,
		Tag:        ref,
		Platform:   d.Platform(),
		BuildArgs:  d.BuildArgs(),
	}, out)
	return err
}

// Writes a Dockerfile into the output directory and returns its path.
func (p *Pipeline) write(name, text string) (string, error) {
	if err := os.MkdirAll(p.OutputDir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPipeline, err)
	}

	target := filepath.Join(p.OutputDir, name)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.WriteFile(target, []byte(text), paths.DefaultFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPipeline, err)
	}
	return target, nil
}
