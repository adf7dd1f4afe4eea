// Parses flags, configures logging and runs the cruximg commands.
//
// Global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// Commands:
//
//	layers       Stage the build context for a manifest.
//	dockerfile   Stage the context and write the Dockerfile.
//	checkpoint   Run the two-phase checkpoint/restore build.
//	version      Show version information.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reconfigured to reflect the final level and verbosity
// before the command runs.
package cli
