// Package logging provides the slog handler used by cruximg.
//
// The handler starts out buffering records, because the final level, format
// and stream are only known after command-line flags are parsed. Once the
// CLI has configured it, [Handler.Flush] replays the buffered records that
// pass the level and from then on records are written directly.
//
// Example usage:
//
//	h := logging.NewHandler()
//	slog.SetDefault(slog.New(h.WithGroup("cruximg")))
//	// ... parse flags ...
//	h.SetLevel(slog.LevelDebug)
//	h.SetFormatter(logging.NewPrettyFormatter(true))
//	h.SetStream(os.Stderr)
//	h.Flush()
package logging
