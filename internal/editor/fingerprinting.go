package editor

import (
	_ "crypto/sha256"
	"log/slog"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Caching wrapper around an [Editor].
//
// The cache maps the fingerprint of (text, edit) to the transformed text.
// Entries are written once and never evicted. Not safe for concurrent use;
// each invocation owns its own instance.
type Fingerprinting struct {
	inner  Editor
	cache  map[digest.Digest]string
	hits   int
	misses int
}

// Creates a new [Fingerprinting] editor around inner. A nil inner editor
// means [Default].
func NewFingerprinting(inner Editor) *Fingerprinting {
	if inner == nil {
		inner = Default{}
	}
	return &Fingerprinting{
		inner: inner,
		cache: make(map[digest.Digest]string),
	}
}

// Apply returns the cached result for (text, e) or runs the wrapped editor
// and caches its output. Failures are not cached.
func (f *Fingerprinting) Apply(text string, e Edit) (string, error) {
	fp := Fingerprint(text, e)

	if out, ok := f.cache[fp]; ok {
		f.hits++
		slog.Debug("edit cache hit", "edit", e.String(), "fingerprint", fp.Encoded()[:12])
		return out, nil
	}

	out, err := f.inner.Apply(text, e)
	if err != nil {
		return "", err
	}

	f.misses++
	f.cache[fp] = out
	return out, nil
}

// Applies edits in order, feeding each result into the next edit.
func (f *Fingerprinting) ApplyAll(text string, edits ...Edit) (string, error) {
	for _, e := range edits {
		var err error
		if text, err = f.Apply(text, e); err != nil {
			return "", err
		}
	}
	return text, nil
}

// Number of calls answered from the cache.
func (f *Fingerprinting) Hits() int {
	return f.hits
}

// Number of calls that ran the wrapped editor.
func (f *Fingerprinting) Misses() int {
	return f.misses
}

// Returns the cache key of applying e to text.
//
// The text and each canonical token of the edit are written length-prefixed,
// so no token can spill into its neighbour and two distinct edits never
// share a key.
func Fingerprint(text string, e Edit) digest.Digest {
	var b strings.Builder
	writeField(&b, text)
	for _, t := range e.tokens() {
		writeField(&b, t)
	}
	return digest.FromString(b.String())
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
	b.WriteByte('\n')
}
