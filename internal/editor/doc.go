// Package editor applies line-oriented edits to generated Dockerfile text.
//
// An [Edit] describes one logical change: inserting lines next to an anchor,
// replacing whole lines, rewriting lines with a regular expression, or
// substituting a placeholder token. Edits may be restricted to the lines
// between two anchors with [Edit.Within]. Anchors match whole lines.
//
// [Default] performs the edits. [Fingerprinting] wraps any [Editor] with a
// cache keyed by the SHA-256 of the input text and the edit, so applying the
// same edit to the same text twice returns byte-identical output without
// running the transformation again. A Fingerprinting editor belongs to one
// invocation and is never shared.
//
// Example usage:
//
//	ed := editor.NewFingerprinting(editor.Default{})
//	out, err := ed.Apply(text, editor.InsertAfter("# Add checkpoint script",
//	    "COPY checkpoint.sh /home/app/checkpoint.sh",
//	))
//	if err != nil {
//	    return err
//	}
package editor
