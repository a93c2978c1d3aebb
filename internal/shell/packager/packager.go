// Package packager turns a built bundle into a deployable zip artifact.
package packager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/artpar/fndeploy/internal/core/deployment"
)

// EntryBase is the name of the single entry in every artifact, before the
// bundle's extension is appended. The runtime loads the handler from it.
const EntryBase = "index"

var ErrArtifactClosed = errors.New("artifact is closed")

// PackageError reports a bundle that could not be packaged.
type PackageError struct {
	Bundle string
	Err    error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package %s: %v", e.Bundle, e.Err)
}

func (e *PackageError) Unwrap() []error {
	return []error{deployment.ErrPackageFailed, e.Err}
}

// Packager writes artifacts to temporary files on fs.
type Packager struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a packager. A nil fs uses the operating system's filesystem.
func New(fs afero.Fs, logger *slog.Logger) *Packager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Packager{fs: fs, logger: logger.With("component", "packager")}
}

// EntryName returns the archive entry name for a bundle: "index" plus the
// bundle's extension.
func EntryName(bundlePath string) string {
	return EntryBase + filepath.Ext(bundlePath)
}

// Package zips the file at bundlePath into a new temporary artifact. The
// caller owns the artifact and must Close it.
func (p *Packager) Package(ctx context.Context, bundlePath string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, &PackageError{Bundle: bundlePath, Err: err}
	}

	src, err := p.fs.Open(bundlePath)
	if err != nil {
		return nil, &PackageError{Bundle: bundlePath, Err: err}
	}
	defer src.Close()

	tmp, err := afero.TempFile(p.fs, "", "fndeploy-*.zip")
	if err != nil {
		return nil, &PackageError{Bundle: bundlePath, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	fail := func(err error) (*Artifact, error) {
		tmp.Close()
		p.fs.Remove(tmpPath)
		return nil, &PackageError{Bundle: bundlePath, Err: err}
	}

	zw := zip.NewWriter(tmp)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: EntryName(bundlePath), Method: zip.Deflate})
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fail(fmt.Errorf("read bundle: %w", err))
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}

	artifact := &Artifact{fs: p.fs, path: tmpPath}
	size, err := artifact.Size()
	if err != nil {
		return fail(err)
	}
	p.logger.Debug("artifact packaged", "bundle", bundlePath, "path", tmpPath, "bytes", size)
	return artifact, nil
}

// =============================================================================
// Artifact
// =============================================================================

// Artifact is a packaged zip archive backed by a file. Until Persist is
// called the file is temporary and Close removes it.
type Artifact struct {
	fs afero.Fs

	mu        sync.Mutex
	path      string
	persisted bool
	closed    bool
}

// Path returns where the archive currently lives.
func (a *Artifact) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// Persisted reports whether the archive has been moved to a kept location.
func (a *Artifact) Persisted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persisted
}

// Open re-opens the archive's byte stream from the beginning.
func (a *Artifact) Open() (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrArtifactClosed
	}
	return a.fs.Open(a.path)
}

// Bytes reads the whole archive.
func (a *Artifact) Bytes() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrArtifactClosed
	}
	return afero.ReadFile(a.fs, a.path)
}

// Size returns the archive size in bytes.
func (a *Artifact) Size() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrArtifactClosed
	}
	info, err := a.fs.Stat(a.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Checksum returns the xxhash64 of the archive as lowercase hex.
func (a *Artifact) Checksum() (string, error) {
	r, err := a.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// Persist copies the archive to dst and switches the artifact to it. The
// temporary file is removed and Close no longer deletes anything.
func (a *Artifact) Persist(dst string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrArtifactClosed
	}
	if dst == a.path {
		a.persisted = true
		return nil
	}

	if dir := filepath.Dir(dst); dir != "" {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("persist artifact: %w", err)
		}
	}
	data, err := afero.ReadFile(a.fs, a.path)
	if err != nil {
		return fmt.Errorf("persist artifact: %w", err)
	}
	if err := afero.WriteFile(a.fs, dst, data, 0o644); err != nil {
		return fmt.Errorf("persist artifact: %w", err)
	}
	if !a.persisted {
		a.fs.Remove(a.path)
	}
	a.path = dst
	a.persisted = true
	return nil
}

// Close releases the artifact, deleting it unless it was persisted. Close is
// idempotent.
func (a *Artifact) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.persisted {
		return nil
	}
	if err := a.fs.Remove(a.path); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return err
	}
	return nil
}
