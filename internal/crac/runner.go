package crac

import (
	"context"
	"io"
)

// Runs a checkpoint image until the application has been snapshotted and
// commits the result.
type Runner interface {

	// Runs req.Command inside the image from req.Archive. Exit status zero
	// means the snapshot was taken. Returns the reference of the committed
	// image, which has been exported to req.Output. Process output goes to
	// out.
	Checkpoint(ctx context.Context, req CheckpointRequest, out io.Writer) (string, error)
}

// Parameters of one checkpoint run.
type CheckpointRequest struct {
	Archive         string   // OCI archive of the checkpoint image.
	Image           string   // Reference the committed image is tagged with.
	Command         []string // Command that runs the application and takes the snapshot.
	SnapshotDir     string   // Directory the snapshot is written to inside the container.
	Platform        string   // Platform of the image; empty means the host.
	Output          string   // Path of the OCI archive the committed image is exported to.
	SnapshotArchive string   // When set, the snapshot directory is also copied out to this tar file.
}
