package dockerfile

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/cruciblehq/cruximg/internal/image"
)

const (
	nativeBuilderStage = "graalvm"
	nativeAppDir       = "/app"
)

// Builder stage compiling the executable, then a runtime stage holding the
// executable and the application resources. Classes and libraries never
// reach the runtime stage.
func synthNative(in *input) (*instructions, error) {
	b := &instructions{}
	base := in.baseImage(defaultNativeBaseImage)

	exe, err := in.nativeBuilder(b, in.strategy.Native, in.d.MainClass(), base)
	if err != nil {
		return nil, err
	}

	b.from(base, "", in.d.Platform())
	b.workdir(nativeAppDir)
	target := path.Join(nativeAppDir, path.Base(exe))
	b.copy(exe, target, nativeBuilderStage)
	in.copyLayers(b, kindIn(image.KindApplicationResources))
	in.metadata(b)
	b.expose(in.d.Ports())
	b.entrypoint(in.entrypoint(append([]string{target}, in.d.Args()...)))
	b.cmd(in.d.Command())

	return b, nil
}

// Emits the graalvm builder stage and returns the path of the executable it
// produces.
//
// Resource configuration layers are staged into "<workdir>/config-dirs" and
// passed to native-image. The runtime base decides the link mode: scratch
// needs a fully static executable, distroless images carry libc only.
func (in *input) nativeBuilder(b *instructions, cfg *image.NativeConfig, mainClass, runtimeBase string) (string, error) {
	workdir := in.d.WorkDir()
	configDir := path.Join(workdir, "config-dirs")
	exe := path.Join(workdir, cfg.Executable)

	b.from(cfg.BuilderImage, nativeBuilderStage, in.d.Platform())
	b.workdir(workdir)
	in.copyLayers(b, kindIn(image.KindDependencies, image.KindApplicationResources, image.KindClasses))

	b.run("mkdir -p " + configDir)
	var configDirs []string
	for i, l := range in.layers {
		if l.Kind != image.KindExtraResources {
			continue
		}
		dest := path.Join(configDir, path.Base(in.staged[i]))
		b.copy(in.staged[i], dest, "")
		configDirs = append(configDirs, dest)
	}

	if mainClass == "" {
		return "", fmt.Errorf("%w: %w", image.ErrConfiguration, image.ErrMissingMainClass)
	}

	cmd := []string{"native-image", "-cp", in.classpath(), "-o", exe}
	cmd = append(cmd, cfg.BuildArgs...)
	if len(configDirs) > 0 {
		cmd = append(cmd, "-H:ConfigurationFileDirectories="+strings.Join(configDirs, ","))
	}
	cmd = append(cmd, linkFlags(runtimeBase, cfg.BuildArgs)...)
	cmd = append(cmd, mainClass)
	b.run(strings.Join(cmd, " "))

	return exe, nil
}

// Returns the static link flag the runtime base needs, unless the build
// arguments already carry it.
func linkFlags(base string, buildArgs []string) []string {
	var flag string
	switch {
	case strings.EqualFold(base, "scratch"):
		flag = "--static"
	case strings.Contains(base, "distroless"):
		flag = "-H:+StaticExecutableWithDynamicLibC"
	default:
		return nil
	}
	if slices.Contains(buildArgs, flag) {
		return nil
	}
	return []string{flag}
}
