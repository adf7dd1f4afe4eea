package dockerfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/cruciblehq/cruximg/internal/editor"
	"github.com/cruciblehq/cruximg/internal/image"
)

func appLayers() []image.Layer {
	return []image.Layer{
		{Kind: image.KindClasses, Destination: "/home/app/classes"},
		{Kind: image.KindDependencies, Destination: "/home/app/libs"},
	}
}

func descriptor(t *testing.T, opts image.Options) (*image.Descriptor, []image.Layer) {
	t.Helper()
	if opts.MainClass == "" && opts.Runtime != image.RuntimeNativeFunction {
		opts.MainClass = "example.Application"
	}
	d, err := image.NewDescriptor(opts)
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	planned, err := image.Plan(d.Layers())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return d, planned
}

func synthesize(t *testing.T, d *image.Descriptor, planned []image.Layer) string {
	t.Helper()
	text, err := New(nil).Synthesize(d, planned, d.Strategy())
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	return text
}

// Fails unless the lines appear in text in the given order.
func assertOrder(t *testing.T, text string, lines ...string) {
	t.Helper()
	pos := 0
	for _, l := range lines {
		i := strings.Index(text[pos:], l)
		if i < 0 {
			t.Fatalf("%q missing or out of order in:\n%s", l, text)
		}
		pos += i + len(l)
	}
}

func TestSynthesizeDefault(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers:   appLayers(),
		Ports:    []int{8080},
		Strategy: image.Strategy{Kind: image.StrategyDefault},
	})

	want := `# Generated by cruximg
FROM eclipse-temurin:21-jre
WORKDIR /home/app
COPY --link libs/home/app/libs /home/app/libs
COPY --link classes/home/app/classes /home/app/classes
EXPOSE 8080
ENTRYPOINT ["java", "-cp", "/home/app/classes:/home/app/libs/*", "example.Application"]
`
	if got := synthesize(t, d, planned); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSynthesizeDefaultDependenciesFirst(t *testing.T) {
	d, planned := descriptor(t, image.Options{Layers: appLayers()})
	text := synthesize(t, d, planned)

	libs := strings.Index(text, "COPY --link libs/")
	classes := strings.Index(text, "COPY --link classes/")
	if libs < 0 || classes < 0 || libs > classes {
		t.Errorf("dependency copy does not precede application copy:\n%s", text)
	}
	if n := strings.Count(text, "ENTRYPOINT "); n != 1 {
		t.Errorf("%d entrypoints, want 1", n)
	}
}

func TestSynthesizeSkeletonOrder(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		BaseImage:       "eclipse-temurin:17-jre",
		Layers:          appLayers(),
		Ports:           []int{9090, 8080, 8080},
		Env:             map[string]string{"B": "2", "A": "1 2"},
		BuildArgs:       map[string]string{"VERSION": "1.0", "FLAG": ""},
		Labels:          map[string]string{"team": "core"},
		Title:           "demo",
		Args:            []string{"-Xmx128m"},
		Command:         []string{"--verbose"},
		DisableCopyLink: true,
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text,
		"FROM eclipse-temurin:17-jre",
		"WORKDIR /home/app",
		"COPY libs/home/app/libs /home/app/libs",
		"COPY classes/home/app/classes /home/app/classes",
		"ARG FLAG\n",
		`ARG VERSION="1.0"`,
		`ENV A="1 2"`,
		`ENV B="2"`,
		`LABEL org.opencontainers.image.title="demo"`,
		`LABEL team="core"`,
		"EXPOSE 8080 9090",
		`ENTRYPOINT ["java", "-Xmx128m", "-cp"`,
		`CMD ["--verbose"]`,
	)
	if strings.Contains(text, "--link") {
		t.Error("copy link emitted although disabled")
	}
}

func TestSynthesizeNativeImage(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Runtime: image.RuntimeNativeExecutable,
		Layers: append(appLayers(),
			image.Layer{Kind: image.KindApplicationResources, Destination: "/home/app/resources"},
			image.Layer{Kind: image.KindExtraResources, Name: "graal-resource-config", Destination: "/home/app/config"},
		),
		Ports:    []int{8080},
		Strategy: image.Strategy{Kind: image.StrategyNativeImage},
	})
	text := synthesize(t, d, planned)

	stages := strings.Split(text, "\nFROM ")
	if len(stages) != 3 {
		t.Fatalf("want two stages, got %d:\n%s", len(stages)-1, text)
	}
	builder, runtime := stages[1], stages[2]

	assertOrder(t, builder,
		"ghcr.io/graalvm/native-image-community:21-ol9 AS graalvm",
		"COPY --link libs/home/app/libs /home/app/libs",
		"COPY --link classes/home/app/classes /home/app/classes",
		"RUN mkdir -p /home/app/config-dirs",
		"COPY --link config-dirs/resource-config-1-graal-resource-config /home/app/config-dirs/resource-config-1-graal-resource-config",
		"RUN native-image -cp /home/app/classes:/home/app/resources:/home/app/libs/* -o /home/app/application",
		"-H:ConfigurationFileDirectories=/home/app/config-dirs/resource-config-1-graal-resource-config example.Application",
	)

	if strings.Contains(runtime, "classes") {
		t.Errorf("runtime stage copies application classes:\n%s", runtime)
	}
	assertOrder(t, runtime,
		"cgr.dev/chainguard/wolfi-base:latest",
		"COPY --link --from=graalvm /home/app/application /app/application",
		"COPY --link resources/home/app/resources /home/app/resources",
		"EXPOSE 8080",
		`ENTRYPOINT ["/app/application"]`,
	)
}

func TestSynthesizeNativeLinkFlags(t *testing.T) {
	tests := []struct {
		base string
		flag string
	}{
		{"scratch", "--static"},
		{"gcr.io/distroless/cc-debian12", "-H:+StaticExecutableWithDynamicLibC"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			d, planned := descriptor(t, image.Options{
				BaseImage: tt.base,
				Runtime:   image.RuntimeNativeExecutable,
				Layers:    appLayers(),
			})
			text := synthesize(t, d, planned)
			if !strings.Contains(text, " "+tt.flag+" example.Application") {
				t.Errorf("missing %s:\n%s", tt.flag, text)
			}
		})
	}
}

func TestSynthesizeCloudFunction(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers: appLayers(),
		Ports:  []int{8080},
		Strategy: image.Strategy{
			Kind:     image.StrategyCloudFunction,
			Function: &image.FunctionConfig{Handler: "example.Handler"},
		},
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text,
		"FROM fnproject/fn-java-fdk:jre17-latest AS fnfdk",
		"FROM eclipse-temurin:21-jre",
		"WORKDIR /function",
		"COPY --link --from=fnfdk /function/ /function/",
		"COPY --link libs/home/app/libs /home/app/libs",
		`"-Djava.library.path=/function/runtime/lib", "-cp", "/home/app/classes:/home/app/libs/*:/function/runtime/*", "com.fnproject.fn.runtime.EntryPoint"]`,
		`CMD ["example.Handler::handleRequest"]`,
	)
	if strings.Contains(text, "EXPOSE") {
		t.Errorf("function exposes a port:\n%s", text)
	}
}

func TestSynthesizeNativeFunction(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Runtime: image.RuntimeNativeFunction,
		Layers:  appLayers(),
		Strategy: image.Strategy{
			Kind:     image.StrategyCloudFunction,
			Function: &image.FunctionConfig{Handler: "example.Handler", Method: "handle"},
		},
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text,
		"AS graalvm",
		"com.fnproject.fn.runtime.EntryPoint\n",
		"FROM fnproject/fn-java-fdk:jre17-latest AS fnfdk",
		"WORKDIR /function",
		"COPY --link --from=graalvm /home/app/application /function/func",
		"COPY --link --from=fnfdk /function/runtime/lib/* .",
		`ENTRYPOINT ["./func", "-Djava.library.path=/function"]`,
		`CMD ["example.Handler::handle"]`,
	)
}

func TestSynthesizeMissingHandler(t *testing.T) {
	d, planned := descriptor(t, image.Options{Layers: appLayers()})

	_, err := New(nil).Synthesize(d, planned, image.Strategy{Kind: image.StrategyCloudFunction})

	var missing *image.MissingStrategyConfigError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingStrategyConfigError", err)
	}
	if missing.Field != "handler" {
		t.Errorf("field = %q, want handler", missing.Field)
	}
}

func TestSynthesizeIncompatibleStrategy(t *testing.T) {
	d, planned := descriptor(t, image.Options{Layers: appLayers()})

	_, err := New(nil).Synthesize(d, planned, image.Strategy{Kind: image.StrategyNativeImage})

	var incompatible *image.IncompatibleStrategyError
	if !errors.As(err, &incompatible) {
		t.Fatalf("error = %v, want IncompatibleStrategyError", err)
	}
}

func checkpointStrategy(phase image.CheckpointPhase) image.Strategy {
	return image.Strategy{
		Kind: image.StrategyCheckpointRestore,
		Checkpoint: &image.CheckpointConfig{
			Command:         []string{"curl", "-sf", "http://localhost:8080/health"},
			Phase:           phase,
			CheckpointImage: "registry.example.com/app:checkpoint",
		},
	}
}

func TestSynthesizeCheckpointPhase(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers:   appLayers(),
		Strategy: checkpointStrategy(image.PhaseCheckpoint),
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text,
		"FROM --platform=linux/amd64 ubuntu:22.04",
		"# Add required libraries",
		"libnl-3-200",
		"# Install latest CRaC OpenJDK",
		"java_version=21&arch=amd64",
		"mv ${name%%.tar.gz} /azul-crac-jdk",
		"# Copy layers",
		"COPY --link libs/home/app/libs /home/app/libs",
		"COPY --link classes/home/app/classes /home/app/classes",
		CheckpointScriptAnchor+"\n",
	)
	if strings.Contains(text, "ENTRYPOINT") {
		t.Errorf("checkpoint phase sets an entrypoint before the script is wired:\n%s", text)
	}
}

func TestSynthesizeFinalPhase(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers:   appLayers(),
		Ports:    []int{8080},
		Strategy: checkpointStrategy(image.PhaseFinal),
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text,
		"FROM --platform=linux/amd64 registry.example.com/app:checkpoint AS checkpoint",
		"FROM --platform=linux/amd64 ubuntu:22.04",
		"COPY --link --from=checkpoint /azul-crac-jdk /azul-crac-jdk",
		"COPY --link --from=checkpoint /home/app/cr /home/app/cr",
		"COPY --link libs/home/app/libs /home/app/libs",
		"EXPOSE 8080",
		`ENTRYPOINT ["/azul-crac-jdk/bin/java", "-XX:CRaCRestoreFrom=/home/app/cr"]`,
	)
}

func TestSynthesizeFinalPhaseWithSnapshotLayer(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers:   append(appLayers(), image.Layer{Kind: image.KindCheckpointState, Destination: "/home/app/cr"}),
		Strategy: checkpointStrategy(image.PhaseFinal),
	})
	text := synthesize(t, d, planned)

	if strings.Contains(text, "--from=checkpoint /home/app/cr") {
		t.Errorf("snapshot copied from the checkpoint image despite a snapshot layer:\n%s", text)
	}
	assertOrder(t, text, "COPY --link classes/", "COPY --link cr/home/app/cr /home/app/cr")
}

func TestSynthesizeTweaks(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers: appLayers(),
		Tweaks: []editor.Edit{
			editor.InsertAfter("WORKDIR /home/app", "USER app"),
			editor.ReplaceToken("eclipse-temurin:21-jre", "eclipse-temurin:21-jre-alpine"),
		},
	})
	text := synthesize(t, d, planned)

	assertOrder(t, text, "FROM eclipse-temurin:21-jre-alpine", "WORKDIR /home/app\nUSER app\nCOPY")
}

func TestSynthesizeTweakMissingAnchor(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers: appLayers(),
		Tweaks: []editor.Edit{editor.InsertAfter("USER root", "USER app")},
	})

	_, err := New(nil).Synthesize(d, planned, d.Strategy())

	var notFound *editor.EditTargetNotFoundError
	if !errors.As(err, &notFound) || notFound.Target != "USER root" {
		t.Fatalf("error = %v, want EditTargetNotFoundError for USER root", err)
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	d, planned := descriptor(t, image.Options{
		Layers: appLayers(),
		Tweaks: []editor.Edit{editor.InsertAfter("WORKDIR /home/app", "USER app")},
	})
	ed := editor.NewFingerprinting(nil)
	synth := New(ed)

	first, err := synth.Synthesize(d, planned, d.Strategy())
	if err != nil {
		t.Fatal(err)
	}
	misses := ed.Misses()

	second, err := synth.Synthesize(d, planned, d.Strategy())
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("repeated synthesis changed the text")
	}
	if ed.Misses() != misses {
		t.Errorf("second synthesis ran %d transformations, want 0", ed.Misses()-misses)
	}
	if ed.Hits() != misses {
		t.Errorf("hits = %d, want %d", ed.Hits(), misses)
	}
}

func TestExecForm(t *testing.T) {
	got := ExecForm([]string{"java", `-Dmsg="a<b"`, "x y"})
	want := `["java", "-Dmsg=\"a<b\"", "x y"]`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
