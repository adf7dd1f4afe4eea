// Package runtime runs checkpoint images on containerd.
//
// A [Runtime] connects to a containerd daemon. Its Checkpoint method takes
// the OCI archive of a checkpoint image, imports and unpacks it for the
// target platform, and starts a privileged container sharing the host
// network. The trigger command is executed inside the container with its
// output streamed to the caller; once it exits with status zero the
// container's filesystem diff, snapshot included, is committed as a new
// layer and exported as an OCI archive named after the checkpoint image.
// The container and the imported image are removed afterwards.
//
// [Runtime] satisfies the runner the checkpoint pipeline expects.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "cruximg")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ref, err := rt.Checkpoint(ctx, crac.CheckpointRequest{
//	    Archive:     "build/docker/checkpoint-build.tar",
//	    Image:       "app:checkpoint",
//	    Command:     []string{"/home/app/checkpoint.sh"},
//	    SnapshotDir: "/home/app/cr",
//	    Output:      "build/docker/checkpoint.tar",
//	}, os.Stderr)
package runtime
