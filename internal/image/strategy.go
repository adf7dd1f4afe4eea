package image

import (
	"fmt"
	"slices"
)

// Packaging flavour of the image.
type RuntimeKind string

const (
	RuntimeStandard         RuntimeKind = "standard"              // JVM launched from classes and libraries.
	RuntimeNativeExecutable RuntimeKind = "native-executable"     // Ahead-of-time compiled executable.
	RuntimeNativeFunction   RuntimeKind = "native-cloud-function" // Compiled executable behind a function runtime.
)

// Build strategy selecting the Dockerfile layout.
type StrategyKind string

const (
	StrategyDefault           StrategyKind = "default"
	StrategyNativeImage       StrategyKind = "native-image"
	StrategyCloudFunction     StrategyKind = "cloud-function"
	StrategyCheckpointRestore StrategyKind = "checkpoint-restore"
)

// Strategies each runtime kind supports.
var compatibility = map[RuntimeKind][]StrategyKind{
	RuntimeStandard:         {StrategyDefault, StrategyCloudFunction, StrategyCheckpointRestore},
	RuntimeNativeExecutable: {StrategyNativeImage},
	RuntimeNativeFunction:   {StrategyCloudFunction},
}

// Whether runtime kind r supports strategy s.
func Compatible(r RuntimeKind, s StrategyKind) bool {
	return slices.Contains(compatibility[r], s)
}

// Which of the two checkpoint-restore Dockerfiles to synthesize.
type CheckpointPhase string

const (
	PhaseCheckpoint CheckpointPhase = "checkpoint" // Image that runs the application and snapshots it.
	PhaseFinal      CheckpointPhase = "final"      // Image that restores from the snapshot.
)

const (
	DefaultNativeBuilderImage  = "ghcr.io/graalvm/native-image-community:21-ol9"
	DefaultNativeExecutable    = "application"
	DefaultFunctionMethod      = "handleRequest"
	DefaultFunctionImage       = "fnproject/fn-java-fdk:jre17-latest"
	DefaultCheckpointScript    = "checkpoint/checkpoint.sh"
	DefaultSnapshotDir         = "/home/app/cr"
	DefaultCRaCJDKDir          = "/azul-crac-jdk"
	DefaultCRaCJavaVersion     = 21
	DefaultCRaCArch            = "amd64"
	DefaultCheckpointBaseImage = "ubuntu:22.04"
)

// Native executable build settings.
type NativeConfig struct {
	BuilderImage string   // Image providing the native-image tool.
	BuildArgs    []string // Extra native-image arguments.
	Executable   string   // Name of the produced executable.
}

// Cloud function packaging settings.
type FunctionConfig struct {
	Handler      string        // Fully qualified handler class (required).
	Method       string        // Handler method.
	RuntimeImage string        // Function runtime image.
	Native       *NativeConfig // Native build used by the native-cloud-function runtime kind.
}

// Returns the handler reference in "Class::method" form.
func (c *FunctionConfig) HandlerRef() string {
	return c.Handler + "::" + c.Method
}

// Checkpoint/restore packaging settings.
type CheckpointConfig struct {
	Command          []string        // Trigger command the checkpoint script runs (required).
	Script           string          // Checkpoint script inside the build context.
	SnapshotDir      string          // Where the snapshot is written inside the image.
	JDKDir           string          // Install location of the CRaC-enabled JDK.
	JavaVersion      int             // Java feature release of the CRaC JDK.
	Arch             string          // Target architecture ("amd64" or "aarch64").
	RestoreBaseImage string          // Base image of both checkpoint-restore stages.
	Phase            CheckpointPhase // Dockerfile to synthesize.
	CheckpointImage  string          // Reference to the phase-one image, required in the final phase.
	CustomDockerfile string          // User-supplied checkpoint Dockerfile replacing the synthesized one.
}

// Tagged strategy: Kind selects the variant and at most one payload applies.
type Strategy struct {
	Kind       StrategyKind
	Native     *NativeConfig
	Function   *FunctionConfig
	Checkpoint *CheckpointConfig
}

// Reports the first required field the strategy payload lacks.
func (s Strategy) Validate() error {
	switch s.Kind {
	case StrategyDefault, StrategyNativeImage:
		return nil

	case StrategyCloudFunction:
		if s.Function == nil || s.Function.Handler == "" {
			return &MissingStrategyConfigError{Strategy: s.Kind, Field: "handler"}
		}
		return nil

	case StrategyCheckpointRestore:
		if s.Checkpoint == nil || len(s.Checkpoint.Command) == 0 {
			return &MissingStrategyConfigError{Strategy: s.Kind, Field: "command"}
		}
		if s.Checkpoint.Phase == PhaseFinal && s.Checkpoint.CheckpointImage == "" {
			return &MissingStrategyConfigError{Strategy: s.Kind, Field: "checkpoint image"}
		}
		return nil
	}

	return fmt.Errorf("%w: %w: strategy %q", ErrConfiguration, ErrUnknownKind, s.Kind)
}

// Returns a deep copy of s with defaults filled in. The payload matching
// Kind is allocated when absent; other payloads are kept as given.
func (s Strategy) WithDefaults() Strategy {
	out := Strategy{Kind: s.Kind}

	if s.Native != nil || s.Kind == StrategyNativeImage {
		out.Native = s.Native.withDefaults()
	}

	if s.Function != nil || s.Kind == StrategyCloudFunction {
		f := FunctionConfig{}
		if s.Function != nil {
			f = *s.Function
		}
		if f.Method == "" {
			f.Method = DefaultFunctionMethod
		}
		if f.RuntimeImage == "" {
			f.RuntimeImage = DefaultFunctionImage
		}
		f.Native = f.Native.withDefaults()
		out.Function = &f
	}

	if s.Checkpoint != nil || s.Kind == StrategyCheckpointRestore {
		c := CheckpointConfig{}
		if s.Checkpoint != nil {
			c = *s.Checkpoint
			c.Command = slices.Clone(c.Command)
		}
		if c.Script == "" {
			c.Script = DefaultCheckpointScript
		}
		if c.SnapshotDir == "" {
			c.SnapshotDir = DefaultSnapshotDir
		}
		if c.JDKDir == "" {
			c.JDKDir = DefaultCRaCJDKDir
		}
		if c.JavaVersion == 0 {
			c.JavaVersion = DefaultCRaCJavaVersion
		}
		if c.Arch == "" {
			c.Arch = DefaultCRaCArch
		}
		if c.RestoreBaseImage == "" {
			c.RestoreBaseImage = DefaultCheckpointBaseImage
		}
		if c.Phase == "" {
			c.Phase = PhaseCheckpoint
		}
		out.Checkpoint = &c
	}

	return out
}

func (n *NativeConfig) withDefaults() *NativeConfig {
	c := NativeConfig{}
	if n != nil {
		c = *n
		c.BuildArgs = slices.Clone(c.BuildArgs)
	}
	if c.BuilderImage == "" {
		c.BuilderImage = DefaultNativeBuilderImage
	}
	if c.Executable == "" {
		c.Executable = DefaultNativeExecutable
	}
	return &c
}
