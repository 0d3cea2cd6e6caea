// Package manifest fingerprints built assets and records them in a JSON
// manifest consumed by templates to produce cache-busting URLs.
package manifest

import (
	"context"
	"crypto/sha1" // #nosec G505 - content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/fsutil"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

const (
	DefaultPattern = "build/**/*.{css,js,map}"
	DefaultPath    = "build/manifest.json"

	// FingerprintLength is the number of leading hex characters of the digest kept.
	FingerprintLength = 6
)

// Options configures Generate. Empty fields take the defaults above.
type Options struct {
	Pattern      string
	ManifestPath string
}

func (o Options) withDefaults() Options {
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.ManifestPath == "" {
		o.ManifestPath = DefaultPath
	}
	return o
}

// Manifest maps an asset path (relative to the manifest directory, forward
// slashes) to the same path with a "?<fingerprint>" suffix.
type Manifest map[string]string

// Fingerprint returns the first six hex characters of the SHA-1 digest of data.
func Fingerprint(data []byte) string {
	sum := sha1.Sum(data) // #nosec G401
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// Generate globs the build output, fingerprints every matched file and writes
// the manifest. Files are read concurrently; the manifest is written once all
// entries are known.
func Generate(ctx context.Context, opts Options) (Manifest, error) {
	opts = opts.withDefaults()

	if !doublestar.ValidatePathPattern(opts.Pattern) {
		return nil, ferrors.ConfigurationError("invalid manifest pattern").
			WithContext("pattern", opts.Pattern).
			Build()
	}
	matches, err := doublestar.FilepathGlob(opts.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, ferrors.ConfigurationError("invalid manifest pattern").
			WithCause(err).
			WithContext("pattern", opts.Pattern).
			Build()
	}

	// Keys are relative to the manifest directory no matter how the pattern
	// and path are spelled, so both sides are resolved against the cwd.
	manifestAbs, err := filepath.Abs(opts.ManifestPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve manifest path").
			WithContext("path", opts.ManifestPath).
			Build()
	}
	baseDir := filepath.Dir(manifestAbs)

	var (
		mu      sync.Mutex
		entries = make(Manifest, len(matches))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, match := range matches {
		if abs, _ := filepath.Abs(match); abs == manifestAbs {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key, fp, err := fingerprintFile(baseDir, match)
			if err != nil {
				return err
			}
			mu.Lock()
			entries[key] = key + "?" + fp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := Write(opts.ManifestPath, entries); err != nil {
		return nil, err
	}

	slog.Info("Manifest written",
		logfields.Path(opts.ManifestPath),
		logfields.Pattern(opts.Pattern),
		logfields.Entries(len(entries)))
	return entries, nil
}

func fingerprintFile(baseDir, path string) (string, string, error) {
	// #nosec G304 - paths come from the configured glob
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read asset").
			WithContext("path", path).
			Build()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve asset path").
			WithContext("path", path).
			Build()
	}
	rel, err := filepath.Rel(baseDir, abs)
	if err != nil {
		return "", "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "asset is not relative to manifest directory").
			WithContext("path", path).
			WithContext("base", baseDir).
			Build()
	}
	return filepath.ToSlash(rel), Fingerprint(data), nil
}

// Write serializes m as 2-space indented JSON with sorted keys.
func Write(path string, m Manifest) error {
	// encoding/json sorts map keys.
	data, err := json.MarshalIndent(map[string]string(m), "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal manifest").Build()
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Load reads a manifest previously written by Generate.
func Load(path string) (Manifest, error) {
	// #nosec G304 - manifest path is configured by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read manifest").
			WithContext("path", path).
			Build()
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "malformed manifest").
			WithContext("path", path).
			Build()
	}
	return m, nil
}

// URL returns the cache-busted reference for asset, or asset unchanged when
// the manifest has no entry for it.
func (m Manifest) URL(asset string) string {
	key := filepath.ToSlash(asset)
	if v, ok := m[key]; ok {
		return v
	}
	return asset
}

// Keys returns the asset paths in sorted order.
func (m Manifest) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}
