package dockerfile

import (
	"fmt"
	"path"

	"github.com/cruciblehq/cruximg/internal/image"
)

const (

	// Anchor line below which the checkpoint script is wired in.
	CheckpointScriptAnchor = "# Add checkpoint script"

	// Stage name of the checkpoint image inside the final Dockerfile.
	checkpointStage = "checkpoint"
)

// Checkpoint-restore packaging, one Dockerfile per phase.
func synthCheckpoint(in *input) (*instructions, error) {
	cfg := in.strategy.Checkpoint

	switch cfg.Phase {
	case image.PhaseCheckpoint:
		return in.checkpointPhase(cfg), nil
	case image.PhaseFinal:
		return in.finalPhase(cfg), nil
	}
	return nil, fmt.Errorf("%w: %w: checkpoint phase %q", image.ErrConfiguration, image.ErrUnknownKind, cfg.Phase)
}

// Image that installs a CRaC JDK next to the layers. The script that runs
// the application and takes the snapshot is wired in below
// [CheckpointScriptAnchor] by the pipeline.
func (in *input) checkpointPhase(cfg *image.CheckpointConfig) *instructions {
	b := &instructions{}

	b.from(in.baseImage(cfg.RestoreBaseImage), "", in.checkpointPlatform(cfg))
	b.workdir(in.d.WorkDir())

	b.comment("Add required libraries")
	b.run("apt-get update && apt-get install -y \\\n" +
		"        curl \\\n" +
		"        jq \\\n" +
		"        libnl-3-200 \\\n" +
		"    && rm -rf /var/lib/apt/lists/*")

	b.comment("Install latest CRaC OpenJDK")
	b.run(cracDownload(cfg))

	b.comment("Copy layers")
	in.copyLayers(b, kindNotIn(image.KindCheckpointState))
	in.metadata(b)

	b.add(CheckpointScriptAnchor)
	return b
}

// Image that restores from the snapshot taken in the checkpoint image. The
// JDK and the snapshot come from the checkpoint image; a checkpoint-state
// layer at the snapshot directory replaces the latter.
func (in *input) finalPhase(cfg *image.CheckpointConfig) *instructions {
	b := &instructions{}
	platform := in.checkpointPlatform(cfg)

	b.from(cfg.CheckpointImage, checkpointStage, platform)
	b.from(in.baseImage(cfg.RestoreBaseImage), "", platform)
	b.workdir(in.d.WorkDir())

	b.comment("Add required libraries")
	b.run("apt-get update && apt-get install -y \\\n" +
		"        libnl-3-200 \\\n" +
		"    && rm -rf /var/lib/apt/lists/*")

	b.comment("Copy CRaC JDK from the checkpoint image")
	b.copy(cfg.JDKDir, cfg.JDKDir, checkpointStage)

	b.comment("Copy layers")
	if !in.hasSnapshotLayer(cfg.SnapshotDir) {
		b.copy(cfg.SnapshotDir, cfg.SnapshotDir, checkpointStage)
	}
	in.copyLayers(b, func(image.Layer) bool { return true })
	in.metadata(b)
	b.expose(in.d.Ports())

	restore := append([]string{path.Join(cfg.JDKDir, "bin", "java")}, in.d.Args()...)
	restore = append(restore, "-XX:CRaCRestoreFrom="+cfg.SnapshotDir)
	b.entrypoint(in.entrypoint(restore))
	b.cmd(in.d.Command())

	return b
}

func (in *input) hasSnapshotLayer(dir string) bool {
	for _, l := range in.layers {
		if l.Kind == image.KindCheckpointState && path.Clean(l.Destination) == path.Clean(dir) {
			return true
		}
	}
	return false
}

// Returns the descriptor platform, or the linux platform of the CRaC JDK
// architecture. The snapshot only restores on the architecture it was taken
// on, so both phases pin the platform.
func (in *input) checkpointPlatform(cfg *image.CheckpointConfig) string {
	if p := in.d.Platform(); p != "" {
		return p
	}
	return "linux/" + platformArch(cfg.Arch)
}

// Azul publishes CRaC builds for aarch64 and amd64 only; everything that is
// not ARM maps to amd64.
func azulArch(arch string) string {
	if platformArch(arch) == "arm64" {
		return "aarch64"
	}
	return "amd64"
}

func platformArch(arch string) string {
	switch arch {
	case "arm64", "aarch64":
		return "arm64"
	}
	return "amd64"
}

// Shell script downloading the latest GA CRaC JDK for the configured Java
// release and architecture, verifying its SHA-256 and unpacking it to the
// JDK directory.
func cracDownload(cfg *image.CheckpointConfig) string {
	arch := azulArch(cfg.Arch)
	url := fmt.Sprintf("https://api.azul.com/metadata/v1/zulu/packages/?java_version=%d&arch=%s"+
		"&crac_supported=true&java_package_type=jdk&latest=true&release_status=ga&certifications=tck&page=1&page_size=100",
		cfg.JavaVersion, arch)
	missing := fmt.Sprintf("No CRaC OpenJDK found for Java version %d and architecture %s", cfg.JavaVersion, arch)

	return `release_id=$(curl -s "` + url + `" -H "accept: application/json" | jq -r '.[0] | .package_uuid') \
    && if [ "$release_id" = "null" ]; then \
           echo "` + missing + `"; \
           exit 1; \
       fi \
    && details=$(curl -s "https://api.azul.com/metadata/v1/zulu/packages/$release_id" -H "accept: application/json") \
    && name=$(echo "$details" | jq -r '.name') \
    && url=$(echo "$details" | jq -r '.download_url') \
    && hash=$(echo "$details" | jq -r '.sha256_hash') \
    && echo "Downloading $name from $url" \
    && curl -LJOH 'Accept: application/octet-stream' "$url" >&2 \
    && file_sha=$(sha256sum -b "$name" | cut -d' ' -f 1) \
    && if [ "$file_sha" != "$hash" ]; then \
           echo "SHA256 hash mismatch: $file_sha != $hash"; \
           exit 1; \
       fi \
    && echo "SHA256 hash matches: $file_sha == $hash" \
    && tar xzf "$name" \
    && mv ${name%%.tar.gz} ` + cfg.JDKDir + ` \
    && rm "$name"`
}
