package image

import (
	"fmt"
	"maps"
	"path"
	"slices"

	"github.com/containerd/platforms"
	"github.com/distribution/reference"

	"github.com/cruciblehq/cruximg/internal/editor"
)

const (
	DefaultWorkDir = "/home/app"
	DefaultPort    = 8080
)

// Construction parameters of a [Descriptor].
type Options struct {
	BaseImage       string            // Base image reference; empty selects the strategy default.
	Runtime         RuntimeKind       // Packaging flavour; empty means standard.
	Ports           []int             // Exposed ports.
	Entrypoint      []string          // Explicit entrypoint; empty derives one from the strategy.
	Command         []string          // Default command arguments.
	Env             map[string]string // Environment variables.
	BuildArgs       map[string]string // Build arguments with default values.
	Layers          []Layer           // Filesystem layers in declaration order.
	Strategy        Strategy          // Build strategy and its settings.
	WorkDir         string            // Working directory; defaults to /home/app.
	MainClass       string            // Class launched by the JVM or compiled natively.
	Args            []string          // JVM or executable arguments preceding the main class.
	Title           string            // OCI title annotation.
	Version         string            // OCI version annotation.
	Labels          map[string]string // Additional image labels.
	DisableCopyLink bool              // Emit plain COPY instead of COPY --link.
	Platform        string            // Optional --platform value for FROM, normalized on construction.
	Tweaks          []editor.Edit     // Edits applied after synthesis.
}

// Validated, immutable description of one image.
type Descriptor struct {
	opts Options
}

// Creates a new [Descriptor] from opts.
//
// Every configuration and input check runs here so that an invalid
// combination never reaches staging or synthesis. Fails with
// [IncompatibleStrategyError], [MissingStrategyConfigError],
// [DuplicateLayerError], [ErrInvalidReference], [ErrInvalidPlatform],
// [ErrMissingMainClass] or [ErrMisplacedSnapshot]. The platform is
// normalized, so "Linux/x86_64" becomes "linux/amd64".
func NewDescriptor(opts Options) (*Descriptor, error) {
	opts = clone(opts)

	if opts.Runtime == "" {
		opts.Runtime = RuntimeStandard
	}
	if _, ok := compatibility[opts.Runtime]; !ok {
		return nil, fmt.Errorf("%w: %w: runtime %q", ErrConfiguration, ErrUnknownKind, opts.Runtime)
	}
	if opts.Strategy.Kind == "" {
		opts.Strategy.Kind = defaultStrategy(opts.Runtime)
	}
	if !Compatible(opts.Runtime, opts.Strategy.Kind) {
		return nil, &IncompatibleStrategyError{Runtime: opts.Runtime, Strategy: opts.Strategy.Kind}
	}
	if err := opts.Strategy.Validate(); err != nil {
		return nil, err
	}
	opts.Strategy = opts.Strategy.WithDefaults()

	if opts.BaseImage != "" {
		if _, err := reference.ParseNormalizedNamed(opts.BaseImage); err != nil {
			return nil, fmt.Errorf("%w: %w: %q: %w", ErrConfiguration, ErrInvalidReference, opts.BaseImage, err)
		}
	}

	if opts.Platform != "" {
		p, err := platforms.Parse(opts.Platform)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %q: %w", ErrConfiguration, ErrInvalidPlatform, opts.Platform, err)
		}
		opts.Platform = platforms.Format(p)
	}

	if opts.WorkDir == "" {
		opts.WorkDir = DefaultWorkDir
	}

	if needsMainClass(opts) && opts.MainClass == "" {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingMainClass)
	}

	if err := validateLayers(opts); err != nil {
		return nil, err
	}

	return &Descriptor{opts: opts}, nil
}

func defaultStrategy(r RuntimeKind) StrategyKind {
	switch r {
	case RuntimeNativeExecutable:
		return StrategyNativeImage
	case RuntimeNativeFunction:
		return StrategyCloudFunction
	}
	return StrategyDefault
}

// The native compiler always needs a main class. JVM launches need one
// unless the entrypoint is given explicitly. Function runtimes dispatch to
// the handler instead.
func needsMainClass(opts Options) bool {
	switch opts.Strategy.Kind {
	case StrategyNativeImage:
		return true
	case StrategyDefault, StrategyCheckpointRestore:
		return len(opts.Entrypoint) == 0
	}
	return false
}

func validateLayers(opts Options) error {
	for _, l := range opts.Layers {
		if !l.Kind.Valid() {
			return fmt.Errorf("%w: %w: layer kind %q", ErrInput, ErrUnknownKind, l.Kind)
		}
		if l.Kind == KindCheckpointState && opts.Strategy.Kind != StrategyCheckpointRestore {
			return fmt.Errorf("%w: %w", ErrConfiguration, ErrMisplacedSnapshot)
		}
		if !path.IsAbs(l.Destination) {
			return fmt.Errorf("%w: layer %q: destination %q is not absolute", ErrInput, l.LogicalName(), l.Destination)
		}
	}
	return CheckDestinations(opts.Layers)
}

// Deep copy, so that callers cannot mutate a descriptor through the slices
// and maps they passed in or received.
func clone(o Options) Options {
	o.Ports = slices.Clone(o.Ports)
	o.Entrypoint = slices.Clone(o.Entrypoint)
	o.Command = slices.Clone(o.Command)
	o.Args = slices.Clone(o.Args)
	o.Env = maps.Clone(o.Env)
	o.BuildArgs = maps.Clone(o.BuildArgs)
	o.Labels = maps.Clone(o.Labels)

	o.Layers = slices.Clone(o.Layers)
	for i := range o.Layers {
		o.Layers[i].Sources = slices.Clone(o.Layers[i].Sources)
	}

	o.Tweaks = slices.Clone(o.Tweaks)
	for i := range o.Tweaks {
		o.Tweaks[i] = o.Tweaks[i].Within("", "")
	}
	return o
}

// Base image reference, or empty for the strategy default.
func (d *Descriptor) BaseImage() string { return d.opts.BaseImage }

// Runtime kind.
func (d *Descriptor) Runtime() RuntimeKind { return d.opts.Runtime }

// Exposed ports in ascending order, without duplicates.
func (d *Descriptor) Ports() []int {
	p := slices.Clone(d.opts.Ports)
	slices.Sort(p)
	return slices.Compact(p)
}

// Explicit entrypoint, if any.
func (d *Descriptor) Entrypoint() []string { return slices.Clone(d.opts.Entrypoint) }

// Default command arguments.
func (d *Descriptor) Command() []string { return slices.Clone(d.opts.Command) }

// Environment variables.
func (d *Descriptor) Env() map[string]string { return maps.Clone(d.opts.Env) }

// Build arguments.
func (d *Descriptor) BuildArgs() map[string]string { return maps.Clone(d.opts.BuildArgs) }

// Layers in declaration order. Use [Plan] for build order.
func (d *Descriptor) Layers() []Layer { return clone(Options{Layers: d.opts.Layers}).Layers }

// Strategy with defaults applied.
func (d *Descriptor) Strategy() Strategy { return d.opts.Strategy.WithDefaults() }

// Working directory.
func (d *Descriptor) WorkDir() string { return d.opts.WorkDir }

// Main class.
func (d *Descriptor) MainClass() string { return d.opts.MainClass }

// Launch arguments.
func (d *Descriptor) Args() []string { return slices.Clone(d.opts.Args) }

// OCI title annotation.
func (d *Descriptor) Title() string { return d.opts.Title }

// OCI version annotation.
func (d *Descriptor) Version() string { return d.opts.Version }

// Additional labels.
func (d *Descriptor) Labels() map[string]string { return maps.Clone(d.opts.Labels) }

// Whether COPY instructions carry --link.
func (d *Descriptor) CopyLink() bool { return !d.opts.DisableCopyLink }

// Platform for FROM, if any.
func (d *Descriptor) Platform() string { return d.opts.Platform }

// Edits applied after synthesis.
func (d *Descriptor) Tweaks() []editor.Edit { return clone(Options{Tweaks: d.opts.Tweaks}).Tweaks }
