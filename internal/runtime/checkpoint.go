package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cruciblehq/cruximg/internal/crac"
	"github.com/cruciblehq/cruximg/internal/paths"
)

// Prefix of checkpoint container IDs.
const containerPrefix = "cruximg-checkpoint-"

var _ crac.Runner = (*Runtime)(nil)

// Runs the checkpoint image from req.Archive until the snapshot is taken and
// exports the committed result to req.Output.
//
// The archive is imported under a tag derived from its path and a fresh
// container is started from it. The snapshot directory is created, then
// req.Command runs with its output streamed to out. Exit status zero means
// the snapshot was taken; anything else is a [CheckpointFailedError]. The
// container and the imported image are removed on return, whatever the
// outcome.
func (rt *Runtime) Checkpoint(ctx context.Context, req crac.CheckpointRequest, out io.Writer) (string, error) {
	platform, err := normalizePlatform(req.Platform)
	if err != nil {
		return "", err
	}

	tag := imageTag(req.Archive)
	if err := rt.ImportImage(ctx, req.Archive, tag, platform); err != nil {
		return "", err
	}
	defer func() {
		if err := rt.DestroyImage(context.WithoutCancel(ctx), tag); err != nil {
			slog.Warn("failed to remove imported checkpoint image", "tag", tag, "error", err)
		}
	}()

	c, err := rt.start(ctx, tag, containerID(), platform)
	if err != nil {
		return "", err
	}
	defer c.Destroy(context.WithoutCancel(ctx))

	if err := c.MkdirAll(ctx, req.SnapshotDir); err != nil {
		return "", err
	}

	slog.Info("running checkpoint", "image", req.Image, "command", req.Command)

	code, err := c.Run(ctx, req.Command, nil, out)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", &CheckpointFailedError{ExitCode: code}
	}

	if req.SnapshotArchive != "" {
		if err := copySnapshot(ctx, c, req.SnapshotDir, req.SnapshotArchive); err != nil {
			return "", err
		}
	}

	if err := c.Export(ctx, req.Output, req.Image); err != nil {
		return "", err
	}

	return req.Image, nil
}

// Writes the snapshot directory of c to a tar file on the host.
func copySnapshot(ctx context.Context, c *Container, dir, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	defer f.Close()

	if err := c.CopyFrom(ctx, f, dir); err != nil {
		return err
	}

	slog.Debug("snapshot copied", "path", target)
	return f.Close()
}

// Returns a container ID that does not collide with concurrent runs.
func containerID() string {
	return containerPrefix + uuid.NewString()
}
