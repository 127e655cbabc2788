package publish

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Object names inside a release directory
const (
	ImageObject    = "update.bin"
	ManifestObject = "manifest.yaml"
)

// Release describes a published update image. It is stored next to the
// image as manifest.yaml.
type Release struct {
	ModuleType  string    `yaml:"module_type" json:"module_type"`
	Version     string    `yaml:"version" json:"version"`
	AppSize     int64     `yaml:"app_size" json:"app_size"`
	DataSize    int64     `yaml:"data_size" json:"data_size"`
	DataSHA256  string    `yaml:"data_sha256" json:"data_sha256"`
	Image       string    `yaml:"image" json:"image"`
	PublishedAt time.Time `yaml:"published_at" json:"published_at"`
}

// ReleaseKey is the directory a release is stored under. Both parts must
// be single path segments so a release cannot land outside its module
// directory.
func ReleaseKey(moduleType, version string) (string, error) {
	for _, part := range []struct{ key, value string }{
		{"module_type", moduleType},
		{"version", version},
	} {
		if err := checkKeySegment(part.key, part.value); err != nil {
			return "", err
		}
	}
	return path.Join(moduleType, version), nil
}

func checkKeySegment(key, value string) error {
	if value == "" || value == "." || value == ".." ||
		strings.ContainsAny(value, "/\\") || strings.ContainsRune(value, 0) {
		return errors.Newf(errors.ErrConfigValid, "%s %q is not a valid release path segment", key, value).
			WithDetail("key", key)
	}
	return nil
}

// Publisher uploads verified images to a store
type Publisher struct {
	store Store
	now   func() time.Time
}

// NewPublisher creates a Publisher
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// Publish verifies the image at imagePath and uploads it with its
// manifest. The module type comes from the image header. An empty version
// falls back to the first 12 digits of the data digest.
func (p *Publisher) Publish(ctx context.Context, imagePath, version string) (*Release, error) {
	logger := logging.GetLogger("publish")

	h, err := update.Verify(imagePath)
	if err != nil {
		return nil, err
	}
	if h.ModuleType == "" {
		return nil, errors.New(errors.ErrImageCorrupt, "update image has no module type")
	}
	if version == "" {
		version = h.DataSHA256[:12]
	}
	prefix, err := ReleaseKey(h.ModuleType, version)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", imagePath)
	}
	defer f.Close()

	imageLoc, err := p.store.Put(ctx, path.Join(prefix, ImageObject), f, "application/octet-stream")
	if err != nil {
		return nil, err
	}

	rel := &Release{
		ModuleType:  h.ModuleType,
		Version:     version,
		AppSize:     h.AppSize,
		DataSize:    h.DataSize,
		DataSHA256:  h.DataSHA256,
		Image:       imageLoc,
		PublishedAt: p.now().UTC().Truncate(time.Second),
	}
	manifest, err := yaml.Marshal(rel)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	if _, err := p.store.Put(ctx, path.Join(prefix, ManifestObject), bytesBody(manifest), "application/yaml"); err != nil {
		return nil, err
	}

	logger.Info().
		Str("store", p.store.Location()).
		Str("module_type", rel.ModuleType).
		Str("version", rel.Version).
		Str("image", rel.Image).
		Msg("Update image published")
	return rel, nil
}

// ReadManifest decodes a manifest
func ReadManifest(data []byte) (*Release, error) {
	var rel Release
	if err := yaml.Unmarshal(data, &rel); err != nil {
		return nil, errors.Wrap(err, errors.ErrImageCorrupt, "invalid release manifest")
	}
	return &rel, nil
}
