package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/siamese/internal/dagger"
)

// Build and return directory of go binaries
func (s *Siamese) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// CGO rules out cross compiling from one container, so each
	// architecture builds in its own emulated linux container.
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	for _, platform := range platforms {
		path := string(platform) + "/"

		build := s.goContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/siamese"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (s *Siamese) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/siamese/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/siamese/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/siamese/pkg/utils.Buildtime=%s'", buildtime),
	}

	return s.Build(ctx, strings.Join(ldflags, " "))
}
