// Package crac runs the two-phase checkpoint/restore image build.
//
// Phase one synthesizes the checkpoint Dockerfile, wires the checkpoint
// script into it and, with the collaborators configured, builds the image
// and runs it until the application has been snapshotted. Phase two starts
// only once phase one has produced the checkpoint image reference; it
// synthesizes the final Dockerfile, which copies the JDK and the snapshot
// out of the checkpoint image and restores from it on start.
//
// Output of the builder and runner is written through a [Tee]: to the live
// sink and to a capture buffer whose contents come back as the transcript,
// so a failed phase can be diagnosed from the result alone.
//
// Example usage:
//
//	p := &crac.Pipeline{
//	    Synth:      dockerfile.New(editor.NewFingerprinting(nil)),
//	    Builder:    &crac.DockerBuilder{},
//	    Sink:       os.Stderr,
//	    ContextDir: "build/docker/main",
//	    OutputDir:  "build/docker",
//	    Image:      "registry.example.com/app",
//	}
//	res, err := p.Run(ctx, d, planned, d.Strategy())
//	if err != nil {
//	    return err
//	}
package crac
