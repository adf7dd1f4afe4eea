// Package stage materializes planned layers into a Docker build context.
//
// Each layer is copied to "<root>/<bucket>/<destination>", where the bucket
// is derived from the layer kind. Extra resource layers are staged under
// "<root>/config-dirs/resource-config-<index>-<name>" instead, so layers with
// the same logical name never collide. File modes are fixed and modification
// times are reset to the Unix epoch, which makes the staged tree identical
// byte for byte on every run with unchanged inputs.
//
// A fingerprint stamp is kept per layer under "<root>/.fingerprints". A layer
// whose stamp matches its current fingerprint is not copied again. Staging is
// append-only: a failed layer is left as is, and rerunning after fixing the
// source is safe.
//
// Example usage:
//
//	planned, err := image.Plan(d.Layers())
//	if err != nil {
//	    return err
//	}
//	root, err := stage.Materialize("build/docker/main", planned)
//	if err != nil {
//	    return err
//	}
package stage
