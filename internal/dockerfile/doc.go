// Package dockerfile synthesizes Dockerfiles from image descriptors.
//
// A [Synthesizer] dispatches once per call, on the strategy kind, to one of
// four layouts:
//
//   - default: a single JVM stage launching the main class.
//   - native-image: a graalvm builder stage that compiles the executable and
//     a runtime stage holding only the executable and its resources.
//   - cloud-function: a function runtime stage invoking the configured
//     handler, on the JVM or as a native executable.
//   - checkpoint-restore: the checkpoint image, or the final image that
//     restores from the checkpoint image's snapshot.
//
// Every layout shares the same skeleton: the base image, one COPY per planned
// layer in plan order, build arguments, environment, labels, exposed ports
// and the entrypoint. After generation the text passes through the
// invocation's fingerprinting editor: first the COPY --link rewrite, then the
// descriptor's own edits.
//
// Example usage:
//
//	synth := dockerfile.New(editor.NewFingerprinting(nil))
//	text, err := synth.Synthesize(d, planned, d.Strategy())
//	if err != nil {
//	    return err
//	}
package dockerfile
