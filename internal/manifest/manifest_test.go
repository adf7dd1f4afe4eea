package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/cruximg/internal/editor"
	"github.com/cruciblehq/cruximg/internal/image"
)

const checkpointManifest = `
image:
  name: registry.example.com/shop:1.0
  main-class: example.Application
  args: [-Xmx512m]
  env:
    APP_ENV: production
  copy-link: false
layers:
  - kind: dependency-libraries
    sources: [build/libs]
    destination: /home/app/libs
  - kind: application-classes
    name: classes
    sources: [/abs/classes]
    destination: /home/app/classes
strategy:
  kind: checkpoint-restore
  checkpoint:
    command: [curl, -f, http://localhost:8080/health]
    arch: aarch64
    dockerfile: docker/Dockerfile.checkpoint
tweaks:
  - op: insert
    after: "WORKDIR /home/app"
    lines: ["USER app"]
`

// Writes content to name under dir and returns its path.
func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "cruximg.yaml", checkpointManifest)

	m, err := load(path, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, dir, m.Dir())

	opts := m.Options()
	assert.Equal(t, []int{image.DefaultPort}, opts.Ports)
	assert.True(t, opts.DisableCopyLink)
	assert.Equal(t, map[string]string{"APP_ENV": "production"}, opts.Env)

	require.Len(t, opts.Layers, 2)
	assert.Equal(t, image.KindDependencies, opts.Layers[0].Kind)
	assert.Equal(t, []string{filepath.Join(dir, "build", "libs")}, opts.Layers[0].Sources)
	assert.Equal(t, []string{"/abs/classes"}, opts.Layers[1].Sources)
	assert.Equal(t, "classes", opts.Layers[1].Name)

	require.NotNil(t, opts.Strategy.Checkpoint)
	assert.Equal(t, image.StrategyCheckpointRestore, opts.Strategy.Kind)
	assert.Equal(t, "aarch64", opts.Strategy.Checkpoint.Arch)
	assert.Equal(t, filepath.Join(dir, "docker", "Dockerfile.checkpoint"), opts.Strategy.Checkpoint.CustomDockerfile)

	require.Len(t, opts.Tweaks, 1)
	assert.Equal(t, editor.InsertAfter("WORKDIR /home/app", "USER app"), opts.Tweaks[0])
}

func TestLoadDescriptor(t *testing.T) {
	dir := t.TempDir()
	m, err := load(write(t, dir, "cruximg.yaml", checkpointManifest), "")
	require.NoError(t, err)

	d, err := m.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, image.RuntimeStandard, d.Runtime())
	assert.Equal(t, image.StrategyCheckpointRestore, d.Strategy().Kind)
	assert.False(t, d.CopyLink())
}

func TestLoadMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	defaults := write(t, dir, "defaults.yaml", `
image:
  base: eclipse-temurin:21-jre-alpine
  main-class: example.Default
  env:
    TZ: UTC
    APP_ENV: development
  labels:
    org.example.team: platform
`)
	path := write(t, dir, "app/cruximg.yaml", `
image:
  main-class: example.Application
  env:
    APP_ENV: production
layers:
  - kind: application-classes
    sources: [classes]
    destination: /home/app/classes
`)

	m, err := load(path, defaults)
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, "eclipse-temurin:21-jre-alpine", opts.BaseImage)
	assert.Equal(t, "example.Application", opts.MainClass)
	assert.Equal(t, map[string]string{"TZ": "UTC", "APP_ENV": "production"}, opts.Env)
	assert.Equal(t, "platform", opts.Labels["org.example.team"])
	assert.Equal(t, []string{filepath.Join(dir, "app", "classes")}, opts.Layers[0].Sources)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown key",
			content: "image:\n  main-klass: example.Application\n",
		},
		{
			name:    "unknown layer kind",
			content: "layers:\n  - kind: jars\n    sources: [libs]\n    destination: /home/app/libs\n",
		},
		{
			name:    "relative destination",
			content: "layers:\n  - kind: application-classes\n    sources: [classes]\n    destination: classes\n",
		},
		{
			name:    "layer without sources",
			content: "layers:\n  - kind: application-classes\n    destination: /home/app/classes\n",
		},
		{
			name:    "port out of range",
			content: "image:\n  ports: [70000]\n",
		},
		{
			name:    "unknown strategy",
			content: "strategy:\n  kind: jlink\n",
		},
		{
			name:    "checkpoint without command",
			content: "strategy:\n  kind: checkpoint-restore\n  checkpoint:\n    arch: amd64\n",
		},
		{
			name:    "function without handler",
			content: "strategy:\n  kind: cloud-function\n  function:\n    method: apply\n",
		},
		{
			name:    "unknown tweak op",
			content: "tweaks:\n  - op: delete\n    target: EXPOSE 8080\n",
		},
		{
			name:    "malformed yaml",
			content: "image: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := load(write(t, dir, "cruximg.yaml", tt.content), "")
			assert.ErrorIs(t, err, ErrManifest)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "cruximg.yaml"), "")
	assert.ErrorIs(t, err, ErrRead)
}

func TestLoadNativeFunction(t *testing.T) {
	dir := t.TempDir()
	m, err := load(write(t, dir, "cruximg.yaml", `
image:
  runtime: native-cloud-function
strategy:
  kind: cloud-function
  function:
    handler: example.Handler
    native:
      executable: func-app
`), "")
	require.NoError(t, err)

	d, err := m.Descriptor()
	require.NoError(t, err)

	s := d.Strategy()
	require.NotNil(t, s.Function)
	assert.Equal(t, "example.Handler::handleRequest", s.Function.HandlerRef())
	assert.Equal(t, "func-app", s.Function.Native.Executable)
}
