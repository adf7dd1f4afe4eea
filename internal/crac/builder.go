package crac

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os/exec"
	"slices"
)

// Builds images from a Dockerfile and a build context.
type Builder interface {

	// Builds the image and returns its reference. Build output goes to out.
	Build(ctx context.Context, req BuildRequest, out io.Writer) (string, error)

	// Loads an image archive so later builds can refer to it by name.
	Load(ctx context.Context, archive string, out io.Writer) error
}

// Parameters of one image build.
type BuildRequest struct {
	Dockerfile string            // Path to the Dockerfile.
	ContextDir string            // Build context root.
	Tag        string            // Reference the image is tagged with.
	Platform   string            // Target platform; empty builds for the host.
	BuildArgs  map[string]string // Build argument values.
	Archive    string            // When set, the image is written to this OCI archive instead of the image store.
}

// [Builder] backed by the docker CLI and buildx.
type DockerBuilder struct {
	Binary string // Docker executable; defaults to "docker".
}

func (b *DockerBuilder) binary() string {
	if b.Binary == "" {
		return "docker"
	}
	return b.Binary
}

// Build runs "docker buildx build" and returns req.Tag.
func (b *DockerBuilder) Build(ctx context.Context, req BuildRequest, out io.Writer) (string, error) {
	args := []string{"buildx", "build", "--file", req.Dockerfile, "--tag", req.Tag}
	if req.Platform != "" {
		args = append(args, "--platform", req.Platform)
	}
	for _, k := range slices.Sorted(maps.Keys(req.BuildArgs)) {
		args = append(args, "--build-arg", k+"="+req.BuildArgs[k])
	}
	if req.Archive != "" {
		args = append(args, "--output", fmt.Sprintf("type=oci,dest=%s,name=%s", req.Archive, req.Tag))
	} else {
		args = append(args, "--load")
	}
	args = append(args, req.ContextDir)

	if err := b.run(ctx, out, args...); err != nil {
		return "", err
	}
	return req.Tag, nil
}

// Load runs "docker load".
func (b *DockerBuilder) Load(ctx context.Context, archive string, out io.Writer) error {
	return b.run(ctx, out, "load", "--input", archive)
}

func (b *DockerBuilder) run(ctx context.Context, out io.Writer, args ...string) error {
	slog.Debug("running builder", "binary", b.binary(), "args", args)

	cmd := exec.CommandContext(ctx, b.binary(), args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrBuild, b.binary(), args[0], err)
	}
	return nil
}
