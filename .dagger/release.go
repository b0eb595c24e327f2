package main

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"dagger/siamese/internal/dagger"
)

// releaseRoot is the bucket directory every siamese release lives under.
const releaseRoot = "siamese"

// bucket holds the S3-compatible bucket credentials shared by all uploads.
type bucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyID     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// Package bundles the output of Build into one tarball per platform named
// siamese_<version>_<os>_<arch>.tar.gz, plus a SHA256SUMS file.
func (s *Siamese) Package(
	ctx context.Context,

	// Directory produced by Build or BuildRelease
	binaries *dagger.Directory,

	// Version string used in archive names
	version string,
) (*dagger.Directory, error) {
	platforms, err := binaries.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing build platforms: %w", err)
	}

	packer := dag.Container().
		From("alpine:3.20").
		WithDirectory("/bin-in", binaries).
		WithWorkdir("/dist")

	var names []string
	for _, goos := range platforms {
		goos = strings.TrimSuffix(goos, "/")
		arches, err := binaries.Directory(goos).Entries(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s architectures: %w", goos, err)
		}
		for _, goarch := range arches {
			goarch = strings.TrimSuffix(goarch, "/")
			name := fmt.Sprintf("siamese_%s_%s_%s.tar.gz", version, goos, goarch)
			packer = packer.WithExec([]string{
				"tar", "-czf", name, "-C", path.Join("/bin-in", goos, goarch), "siamese",
			})
			names = append(names, name)
		}
	}

	dist := packer.
		WithExec(append([]string{"sh", "-c", "sha256sum \"$@\" > SHA256SUMS", "sha256sum"}, names...)).
		Directory("/dist")
	return dist, nil
}

// publish syncs dist into every prefix under releaseRoot.
func (s *Siamese) publish(ctx context.Context, dist *dagger.Directory, b bucket, prefixes ...string) error {
	bucketName, err := b.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket name: %w", err)
	}
	endpointURL, err := b.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket endpoint: %w", err)
	}

	awsCli := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", b.accessKeyID).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", b.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/dist", dist).
		WithWorkdir("/dist")

	for _, prefix := range prefixes {
		destination := "s3://" + path.Join(bucketName, releaseRoot, prefix)
		_, err := awsCli.
			WithExec([]string{"aws", "s3", "sync", ".", destination, "--endpoint-url", endpointURL, "--delete"}).
			Sync(ctx)
		if err != nil {
			return fmt.Errorf("uploading to %s: %w", destination, err)
		}
	}
	return nil
}

// Release builds, packages and uploads a tagged release to
// siamese/<version>/ and siamese/latest/.
func (s *Siamese) Release(
	ctx context.Context,

	// Version tag (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyID *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	dist, err := s.Package(ctx, s.BuildRelease(ctx, version, commit), version)
	if err != nil {
		return nil, err
	}

	b := bucket{endpoint: endpoint, name: bucketName, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
	if err := s.publish(ctx, dist, b, version, "latest"); err != nil {
		return dist, err
	}
	return dist, nil
}

// Nightly builds, packages and uploads the current commit to
// siamese/nightly/<date>/ and siamese/nightly/current/.
func (s *Siamese) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyID *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	date := time.Now().UTC().Format("2006-01-02")
	version := "nightly-" + date

	dist, err := s.Package(ctx, s.BuildRelease(ctx, version, commit), version)
	if err != nil {
		return nil, err
	}

	b := bucket{endpoint: endpoint, name: bucketName, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
	return dist, s.publish(ctx, dist, b, path.Join("nightly", date), path.Join("nightly", "current"))
}
