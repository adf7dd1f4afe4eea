package dockerfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Accumulates Dockerfile instructions, one per line.
type instructions struct {
	lines  []string
	copies int // COPY instructions emitted so far.
}

func (b *instructions) add(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *instructions) comment(text string) {
	b.add("# %s", text)
}

func (b *instructions) blank() {
	if len(b.lines) > 0 && b.lines[len(b.lines)-1] != "" {
		b.lines = append(b.lines, "")
	}
}

// Starts a stage. Empty platform and stage names are omitted.
func (b *instructions) from(image, stage, platform string) {
	b.blank()
	var sb strings.Builder
	sb.WriteString("FROM ")
	if platform != "" {
		sb.WriteString("--platform=" + platform + " ")
	}
	sb.WriteString(image)
	if stage != "" {
		sb.WriteString(" AS " + stage)
	}
	b.lines = append(b.lines, sb.String())
}

func (b *instructions) workdir(dir string) {
	b.add("WORKDIR %s", dir)
}

// Copies src to dest, from the build context or, with stage set, from
// another stage or image.
func (b *instructions) copy(src, dest, stage string) {
	b.copies++
	if stage != "" {
		b.add("COPY --from=%s %s %s", stage, src, dest)
		return
	}
	b.add("COPY %s %s", src, dest)
}

func (b *instructions) run(command string) {
	b.add("RUN %s", command)
}

// Emits one ARG per key, sorted. Empty values declare the argument without
// a default.
func (b *instructions) args(args map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(args)) {
		if v := args[k]; v != "" {
			b.add("ARG %s=%s", k, strconv.Quote(v))
		} else {
			b.add("ARG %s", k)
		}
	}
}

// Emits one ENV per key, sorted.
func (b *instructions) env(env map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(env)) {
		b.add("ENV %s=%s", k, strconv.Quote(env[k]))
	}
}

// Emits one LABEL per key, sorted.
func (b *instructions) labels(labels map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		b.add("LABEL %s=%s", k, strconv.Quote(labels[k]))
	}
}

func (b *instructions) expose(ports []int) {
	if len(ports) == 0 {
		return
	}
	s := make([]string, len(ports))
	for i, p := range ports {
		s[i] = strconv.Itoa(p)
	}
	b.add("EXPOSE %s", strings.Join(s, " "))
}

func (b *instructions) entrypoint(args []string) {
	if len(args) > 0 {
		b.add("ENTRYPOINT %s", ExecForm(args))
	}
}

func (b *instructions) cmd(args []string) {
	if len(args) > 0 {
		b.add("CMD %s", ExecForm(args))
	}
}

// Returns the text with a trailing newline.
func (b *instructions) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// Renders args as a JSON array, the exec form of RUN, ENTRYPOINT and CMD.
func ExecForm(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(a) // Strings always encode.
		quoted[i] = strings.TrimSuffix(buf.String(), "\n")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
