package editor

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Transforms a block of text according to an [Edit].
type Editor interface {
	Apply(text string, e Edit) (string, error)
}

// Plain line editor. The zero value is ready to use.
type Default struct{}

// Apply performs e on text and returns the new text. A trailing newline on
// the input is preserved.
func (Default) Apply(text string, e Edit) (string, error) {
	trailing := strings.HasSuffix(text, "\n")

	var lines []string
	if body := strings.TrimSuffix(text, "\n"); body != "" || !trailing {
		lines = strings.Split(body, "\n")
	}

	start, end, err := bounds(lines, e)
	if err != nil {
		return "", err
	}

	switch e.Op {
	case OpInsert:
		at := start
		if e.After == "" && e.Before != "" {
			at = end
		}
		lines = slices.Insert(lines, at, e.Lines...)

	case OpReplaceLine:
		lines, err = replaceLines(lines, start, end, e)

	case OpReplaceRegex:
		err = replaceRegex(lines, start, end, e)

	case OpReplaceToken:
		err = replaceToken(lines, start, end, e)

	default:
		return "", fmt.Errorf("%w: unknown op %q", ErrInvalidEdit, e.Op)
	}
	if err != nil {
		return "", err
	}

	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out, nil
}

// Resolves the [start, end) line range an edit applies to. The Before anchor
// is looked up below the After anchor.
func bounds(lines []string, e Edit) (start, end int, err error) {
	end = len(lines)

	if e.After != "" {
		i := slices.Index(lines, e.After)
		if i < 0 {
			return 0, 0, &EditTargetNotFoundError{Target: e.After}
		}
		start = i + 1
	}

	if e.Before != "" {
		i := slices.Index(lines[start:], e.Before)
		if i < 0 {
			return 0, 0, &EditTargetNotFoundError{Target: e.Before}
		}
		end = start + i
	}

	return start, end, nil
}

func replaceLines(lines []string, start, end int, e Edit) ([]string, error) {
	out := make([]string, 0, len(lines)+len(e.Lines))
	out = append(out, lines[:start]...)

	found := false
	for _, l := range lines[start:end] {
		if l == e.Target {
			out = append(out, e.Lines...)
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		return nil, &EditTargetNotFoundError{Target: e.Target}
	}

	return append(out, lines[end:]...), nil
}

func replaceRegex(lines []string, start, end int, e Edit) error {
	re, err := regexp.Compile(e.Target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}

	replacement := strings.Join(e.Lines, "\n")
	matched := false
	for i := start; i < end; i++ {
		if re.MatchString(lines[i]) {
			lines[i] = re.ReplaceAllString(lines[i], replacement)
			matched = true
		}
	}
	if !matched {
		return &EditTargetNotFoundError{Target: e.Target}
	}
	return nil
}

func replaceToken(lines []string, start, end int, e Edit) error {
	if e.Target == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidEdit)
	}

	value := strings.Join(e.Lines, "\n")
	found := false
	for i := start; i < end; i++ {
		if strings.Contains(lines[i], e.Target) {
			lines[i] = strings.ReplaceAll(lines[i], e.Target, value)
			found = true
		}
	}
	if !found {
		return &EditTargetNotFoundError{Target: e.Target}
	}
	return nil
}
