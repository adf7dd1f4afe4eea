package manifest

import (
	"slices"

	"github.com/cruciblehq/cruximg/internal/editor"
	"github.com/cruciblehq/cruximg/internal/image"
)

// Decoded manifest file.
type Manifest struct {
	Image    Image         `yaml:"image"`
	Layers   []Layer       `yaml:"layers" validate:"dive"`
	Strategy Strategy      `yaml:"strategy"`
	Tweaks   []editor.Edit `yaml:"tweaks" validate:"dive"`

	dir string // Directory relative layer sources resolve against.
}

// Image-level settings.
type Image struct {
	Name       string            `yaml:"name"` // Repository the pipeline tags images under.
	Base       string            `yaml:"base"`
	Runtime    string            `yaml:"runtime" validate:"omitempty,oneof=standard native-executable native-cloud-function"`
	Platform   string            `yaml:"platform"`
	WorkDir    string            `yaml:"workdir" validate:"omitempty,startswith=/"`
	MainClass  string            `yaml:"main-class"`
	Args       []string          `yaml:"args"`
	Entrypoint []string          `yaml:"entrypoint"`
	Command    []string          `yaml:"command"`
	Ports      []int             `yaml:"ports" validate:"dive,min=1,max=65535"`
	Env        map[string]string `yaml:"env"`
	BuildArgs  map[string]string `yaml:"build-args"`
	Labels     map[string]string `yaml:"labels"`
	Title      string            `yaml:"title"`
	Version    string            `yaml:"version"`
	CopyLink   *bool             `yaml:"copy-link"`
}

type Layer struct {
	Kind        string   `yaml:"kind" validate:"required,oneof=dependency-libraries extra-resources application-resources application-classes checkpoint-state"`
	Name        string   `yaml:"name"`
	Sources     []string `yaml:"sources" validate:"required,dive,required"`
	Destination string   `yaml:"destination" validate:"required,startswith=/"`
}

type Strategy struct {
	Kind       string      `yaml:"kind" validate:"omitempty,oneof=default native-image cloud-function checkpoint-restore"`
	Native     *Native     `yaml:"native"`
	Function   *Function   `yaml:"function"`
	Checkpoint *Checkpoint `yaml:"checkpoint"`
}

type Native struct {
	BuilderImage string   `yaml:"builder-image"`
	BuildArgs    []string `yaml:"build-args"`
	Executable   string   `yaml:"executable" validate:"omitempty,excludesall=/"`
}

type Function struct {
	Handler      string  `yaml:"handler" validate:"required"`
	Method       string  `yaml:"method"`
	RuntimeImage string  `yaml:"runtime-image"`
	Native       *Native `yaml:"native"`
}

type Checkpoint struct {
	Command         []string `yaml:"command" validate:"required,min=1"`
	Script          string   `yaml:"script"`
	SnapshotDir     string   `yaml:"snapshot-dir" validate:"omitempty,startswith=/"`
	JDKDir          string   `yaml:"jdk-dir" validate:"omitempty,startswith=/"`
	JavaVersion     int      `yaml:"java-version" validate:"omitempty,min=17"`
	Arch            string   `yaml:"arch" validate:"omitempty,oneof=amd64 aarch64 arm64"`
	BaseImage       string   `yaml:"base-image"`
	CheckpointImage string   `yaml:"checkpoint-image"`
	Dockerfile      string   `yaml:"dockerfile"`
}

// Returns the directory relative paths in the manifest resolve against.
func (m *Manifest) Dir() string {
	return m.dir
}

// Returns the descriptor options the manifest describes. Ports default to
// 8080 when none are listed.
func (m *Manifest) Options() image.Options {
	img := m.Image

	ports := slices.Clone(img.Ports)
	if len(ports) == 0 {
		ports = []int{image.DefaultPort}
	}

	opts := image.Options{
		BaseImage:       img.Base,
		Runtime:         image.RuntimeKind(img.Runtime),
		Ports:           ports,
		Entrypoint:      img.Entrypoint,
		Command:         img.Command,
		Env:             img.Env,
		BuildArgs:       img.BuildArgs,
		Strategy:        m.Strategy.strategy(m.dir),
		WorkDir:         img.WorkDir,
		MainClass:       img.MainClass,
		Args:            img.Args,
		Title:           img.Title,
		Version:         img.Version,
		Labels:          img.Labels,
		DisableCopyLink: img.CopyLink != nil && !*img.CopyLink,
		Platform:        img.Platform,
		Tweaks:          m.Tweaks,
	}

	for _, l := range m.Layers {
		sources := make([]string, len(l.Sources))
		for i, s := range l.Sources {
			sources[i] = resolve(m.dir, s)
		}
		opts.Layers = append(opts.Layers, image.Layer{
			Kind:        image.LayerKind(l.Kind),
			Name:        l.Name,
			Sources:     sources,
			Destination: l.Destination,
		})
	}

	return opts
}

// Returns the validated descriptor the manifest describes.
func (m *Manifest) Descriptor() (*image.Descriptor, error) {
	return image.NewDescriptor(m.Options())
}

func (s Strategy) strategy(dir string) image.Strategy {
	out := image.Strategy{
		Kind:   image.StrategyKind(s.Kind),
		Native: s.Native.config(),
	}

	if f := s.Function; f != nil {
		out.Function = &image.FunctionConfig{
			Handler:      f.Handler,
			Method:       f.Method,
			RuntimeImage: f.RuntimeImage,
			Native:       f.Native.config(),
		}
	}

	if c := s.Checkpoint; c != nil {
		out.Checkpoint = &image.CheckpointConfig{
			Command:          c.Command,
			Script:           c.Script,
			SnapshotDir:      c.SnapshotDir,
			JDKDir:           c.JDKDir,
			JavaVersion:      c.JavaVersion,
			Arch:             c.Arch,
			RestoreBaseImage: c.BaseImage,
			CheckpointImage:  c.CheckpointImage,
		}
		if c.Dockerfile != "" {
			out.Checkpoint.CustomDockerfile = resolve(dir, c.Dockerfile)
		}
	}

	return out
}

func (n *Native) config() *image.NativeConfig {
	if n == nil {
		return nil
	}
	return &image.NativeConfig{
		BuilderImage: n.BuilderImage,
		BuildArgs:    n.BuildArgs,
		Executable:   n.Executable,
	}
}
