package image

import (
	"fmt"
	"strings"

	"github.com/distribution/distribution/reference"
	"github.com/opencontainers/go-digest"
)

const defaultRegistry = "docker.io"

// Info holds the parsed parts of a container image reference.
type Info struct {
	// Registry is the URL address of the image registry e.g. `docker.io`
	Registry string `json:"registry,omitempty"`

	// Name is the image name portion e.g. `busybox`
	Name string `json:"name"`

	// Path is the repository path and image name e.g. `some-repository/busybox`
	Path string `json:"path"`

	// Tag is the image tag e.g. `v2`
	Tag string `json:"tag,omitempty"`

	// Digest is the image digest portion e.g. `sha256:128c6e3534b842a2eec139999b8ce8aa9a2af9907e2b9269550809d18cd832a3`
	Digest string `json:"digest,omitempty"`
}

func (i *Info) String() string {
	image := fmt.Sprintf("%s/%s", i.Registry, i.Path)
	if i.Digest != "" {
		return fmt.Sprintf("%s@%s", image, i.Digest)
	}
	return fmt.Sprintf("%s:%s", image, i.Tag)
}

// HasDigest reports whether the reference is pinned to a digest.
func (i *Info) HasDigest() bool {
	return i.Digest != ""
}

// GetInfo parses an image reference into its parts. References without a
// registry default to docker.io, references without a tag or digest default
// to the `latest` tag.
func GetInfo(image string) (*Info, error) {
	// adding the default domain in order to properly parse image info
	fullImageName := addDefaultRegistry(image)
	ref, err := reference.Parse(fullImageName)
	if err != nil {
		return nil, fmt.Errorf("bad image %s: %w", fullImageName, err)
	}

	var registry, path, name, tag, dgst string
	if named, ok := ref.(reference.Named); ok {
		registry = reference.Domain(named)
		path = reference.Path(named)
		name = path[strings.LastIndex(path, "/")+1:]
	}

	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}
	if digested, ok := ref.(reference.Digested); ok {
		dgst = digested.Digest().String()
		if err := digested.Digest().Validate(); err != nil {
			return nil, fmt.Errorf("bad digest in image %s: %w", fullImageName, err)
		}
	}
	// the domain is set via addDefaultRegistry before parsing
	if dgst == "" && tag == "" {
		tag = "latest"
	}

	return &Info{
		Registry: registry,
		Name:     name,
		Path:     path,
		Tag:      tag,
		Digest:   dgst,
	}, nil
}

// ValidateDigest checks that a digest string is a well-formed digest, e.g.
// `sha256:...` with the right length for the algorithm.
func ValidateDigest(dgst string) error {
	_, err := digest.Parse(dgst)
	return err
}

// addDefaultRegistry prefixes image names without a registry host with the
// default registry.
func addDefaultRegistry(name string) string {
	i := strings.IndexRune(name, '/')
	if i == -1 || (!strings.ContainsAny(name[:i], ".:") && name[:i] != "localhost" && strings.ToLower(name[:i]) == name[:i]) {
		name = fmt.Sprintf("%s/%s", defaultRegistry, name)
	}
	return name
}
