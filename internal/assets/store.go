// Package assets manages the flat directory of request-scoped files the
// service generates and serves back to clients.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Purpose prefixes encode where a file came from in its name.
const (
	PrefixUpload  = "upload_"
	PrefixGen     = "gen_"
	PrefixResized = "resized_"
	PrefixDream   = "dream_"
)

type Store struct {
	dir        string
	publicPath string
	log        zerolog.Logger

	// rename is os.Rename unless a test swaps it to force the
	// cross-filesystem copy fallback in MoveIn.
	rename func(oldpath, newpath string) error
}

func NewStore(dir, publicPath string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}
	return &Store{
		dir:        dir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
		log:        log,
		rename:     os.Rename,
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) newName(prefix, ext string) string {
	return fmt.Sprintf("%s%s.%s", prefix, uuid.NewString(), ext)
}

// Save writes data under a fresh generated name and returns that name.
func (s *Store) Save(prefix, ext string, data []byte) (string, error) {
	name := s.newName(prefix, ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return name, nil
}

// MoveIn relocates an existing file (typically a temp file produced by a
// remote client) into the store under a fresh name. Rename is tried
// first; a copy-and-remove fallback covers temp dirs on another
// filesystem.
func (s *Store) MoveIn(prefix, ext, srcPath string) (string, error) {
	name := s.newName(prefix, ext)
	dst := filepath.Join(s.dir, name)

	if err := s.rename(srcPath, dst); err != nil {
		if copyErr := copyFile(srcPath, dst); copyErr != nil {
			return "", fmt.Errorf("move asset: %w", errors.Join(err, copyErr))
		}
		_ = os.Remove(srcPath)
	}
	return name, nil
}

// Path returns the on-disk location of a stored asset.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// URLFor returns the public path a stored asset is served under.
func (s *Store) URLFor(name string) string {
	return path.Join(s.publicPath, name)
}

// Open returns a reader over a stored asset.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return f, nil
}

// Remove deletes the named assets, ignoring ones already gone.
func (s *Store) Remove(names ...string) error {
	var errs []error
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep deletes assets whose modification time is older than ttl and
// returns how many were removed. Generated files are otherwise never
// cleaned up, so this is the only thing standing between the service and
// a full disk.
func (s *Store) Sweep(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read assets dir: %w", err)
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.Warn().Err(err).Str("asset", entry.Name()).Msg("sweep remove failed")
			continue
		}
		removed++
	}
	return removed, nil
}

// Writable reports whether the store can currently create files, used by
// the health endpoint.
func (s *Store) Writable() error {
	f, err := os.CreateTemp(s.dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
