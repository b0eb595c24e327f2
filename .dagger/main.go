// Siamese CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/siamese/internal/dagger"
)

// Siamese is the main module for the siamese CI/CD pipeline
type Siamese struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Siamese CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "Models", "Datasets", "Embeddings", ".siamese"]
	source *dagger.Directory,
) *Siamese {
	return &Siamese{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted. The sqlite
// run store and the sqlite-vec sentence index both need CGO.
func (s *Siamese) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod-"+string(platform))).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", s.Source)
}

// Test runs the siamese unit tests via "go test"
func (s *Siamese) Test(ctx context.Context) (string, error) {
	return s.goContainer("").
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
