package dockerfile

import (
	"log/slog"
	"path"
	"slices"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cruciblehq/cruximg/internal"
	"github.com/cruciblehq/cruximg/internal/editor"
	"github.com/cruciblehq/cruximg/internal/image"
	"github.com/cruciblehq/cruximg/internal/stage"
)

const (
	defaultJVMBaseImage    = "eclipse-temurin:21-jre"
	defaultNativeBaseImage = "cgr.dev/chainguard/wolfi-base:latest"
)

// Rewrites every COPY into COPY --link, leaving existing --link flags alone.
var copyLink = editor.ReplaceRegex(`^COPY (--link )?`, "COPY --link ")

// Builds the instructions of one strategy layout.
type synthFunc func(in *input) (*instructions, error)

// Everything a layout needs, resolved once per call.
type input struct {
	d        *image.Descriptor
	layers   []image.Layer  // Planned layers.
	staged   []string       // Build-context path of each planned layer.
	strategy image.Strategy // Strategy with defaults applied.
}

// Produces Dockerfile text for descriptors.
//
// A Synthesizer edits through the fingerprinting editor it was created
// with, so repeated synthesis of an unchanged descriptor reuses cached
// edits and yields byte-identical text.
type Synthesizer struct {
	editor *editor.Fingerprinting
	table  map[image.StrategyKind]synthFunc
}

// Creates a new [Synthesizer] editing through ed. A nil editor gets a fresh
// fingerprinting editor of its own.
func New(ed *editor.Fingerprinting) *Synthesizer {
	if ed == nil {
		ed = editor.NewFingerprinting(nil)
	}
	return &Synthesizer{
		editor: ed,
		table: map[image.StrategyKind]synthFunc{
			image.StrategyDefault:           synthDefault,
			image.StrategyNativeImage:       synthNative,
			image.StrategyCloudFunction:     synthFunction,
			image.StrategyCheckpointRestore: synthCheckpoint,
		},
	}
}

// Returns the editor the synthesizer applies edits with.
func (s *Synthesizer) Editor() *editor.Fingerprinting {
	return s.editor
}

// Returns the Dockerfile for d, its planned layers and strategy st.
//
// The strategy is validated before anything is generated and must be
// supported by the descriptor's runtime kind. Failures are
// [image.MissingStrategyConfigError], [image.IncompatibleStrategyError] and
// [editor.EditTargetNotFoundError] for a descriptor edit whose target is
// absent.
func (s *Synthesizer) Synthesize(d *image.Descriptor, planned []image.Layer, st image.Strategy) (string, error) {
	if err := st.Validate(); err != nil {
		return "", err
	}
	if !image.Compatible(d.Runtime(), st.Kind) {
		return "", &image.IncompatibleStrategyError{Runtime: d.Runtime(), Strategy: st.Kind}
	}

	in := &input{d: d, layers: planned, strategy: st.WithDefaults()}
	for i, l := range planned {
		p, err := stage.StagedPath(i, l)
		if err != nil {
			return "", err
		}
		in.staged = append(in.staged, p)
	}

	b, err := s.table[st.Kind](in)
	if err != nil {
		return "", err
	}

	text := internal.GeneratedBy() + "\n" + b.String()

	if d.CopyLink() && b.copies > 0 {
		if text, err = s.editor.Apply(text, copyLink); err != nil {
			return "", err
		}
	}

	if text, err = s.editor.ApplyAll(text, d.Tweaks()...); err != nil {
		return "", err
	}

	slog.Debug("dockerfile synthesized",
		"strategy", st.Kind,
		"runtime", d.Runtime(),
		"layers", len(planned),
		"cache_hits", s.editor.Hits(),
	)
	return text, nil
}

// Emits a COPY for each planned layer that keep accepts, targeting the
// layer's destination.
func (in *input) copyLayers(b *instructions, keep func(image.Layer) bool) {
	for i, l := range in.layers {
		if keep(l) {
			b.copy(in.staged[i], l.Destination, "")
		}
	}
}

// Emits the metadata part of the skeleton: build arguments, environment
// and labels.
func (in *input) metadata(b *instructions) {
	b.args(in.d.BuildArgs())
	b.env(in.d.Env())

	labels := in.d.Labels()
	if labels == nil {
		labels = map[string]string{}
	}
	if t := in.d.Title(); t != "" {
		labels[ocispec.AnnotationTitle] = t
	}
	if v := in.d.Version(); v != "" {
		labels[ocispec.AnnotationVersion] = v
	}
	b.labels(labels)
}

// Returns the JVM classpath over the planned layers: classes, then
// resources, then every jar of the dependency layers.
func (in *input) classpath() string {
	var classes, resources, libs []string
	for _, l := range in.layers {
		switch l.Kind {
		case image.KindClasses:
			classes = append(classes, l.Destination)
		case image.KindApplicationResources:
			resources = append(resources, l.Destination)
		case image.KindDependencies:
			libs = append(libs, path.Join(l.Destination, "*"))
		}
	}

	cp := slices.Concat(classes, resources, libs)
	if len(cp) == 0 {
		return in.d.WorkDir()
	}
	return strings.Join(cp, ":")
}

// Returns the descriptor's base image, or fallback.
func (in *input) baseImage(fallback string) string {
	if b := in.d.BaseImage(); b != "" {
		return b
	}
	return fallback
}

// Returns an explicit entrypoint when the descriptor has one, or derived.
func (in *input) entrypoint(derived []string) []string {
	if ep := in.d.Entrypoint(); len(ep) > 0 {
		return ep
	}
	return derived
}

// Whether l is a layer of one of the given kinds.
func kindIn(kinds ...image.LayerKind) func(image.Layer) bool {
	set := make(map[image.LayerKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(l image.Layer) bool { return set[l.Kind] }
}

// Whether l is not a layer of any of the given kinds.
func kindNotIn(kinds ...image.LayerKind) func(image.Layer) bool {
	in := kindIn(kinds...)
	return func(l image.Layer) bool { return !in(l) }
}
