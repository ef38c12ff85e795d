// Package receipts resolves validated receipt file names against a fixed
// root directory and reads the PDF content as binary.
package receipts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidFileName = errors.New("invalid receipt file name")
	ErrAccessDenied    = errors.New("receipt path escapes receipts root")
	ErrNotFound        = errors.New("receipt not found")
)

// Store serves receipt PDFs confined to a single root directory. The root is
// fixed at construction; requested names can never select another directory.
type Store struct {
	root   string
	logger zerolog.Logger
}

func NewStore(root string, logger zerolog.Logger) *Store {
	return &Store{root: filepath.Clean(root), logger: logger}
}

// Resolve validates fileName and joins it under the receipts root. The name
// must be a bare PDF base name: non-empty, ending in .pdf (case-insensitive),
// free of null bytes, and byte-identical to its own base-name component so
// any directory traversal attempt is rejected before the filesystem is
// touched.
func (s *Store) Resolve(fileName string) (string, error) {
	if fileName == "" || fileName == "." || fileName == ".." {
		return "", ErrInvalidFileName
	}
	if strings.ContainsRune(fileName, 0) {
		return "", ErrInvalidFileName
	}
	if strings.ContainsAny(fileName, `/\`) {
		return "", ErrInvalidFileName
	}
	if filepath.Base(fileName) != fileName {
		return "", ErrInvalidFileName
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return "", ErrInvalidFileName
	}

	path := filepath.Join(s.root, fileName)
	// Joining a validated base name cannot leave the root, but the
	// containment check stays as an independent layer against encoded
	// traversal sequences.
	if filepath.Dir(path) != s.root {
		return "", ErrAccessDenied
	}
	return path, nil
}

// Read resolves fileName and returns the raw PDF bytes. Any filesystem
// failure, including a path that resolves through symlinks to somewhere
// outside the root, is reported as ErrNotFound; the underlying detail is
// logged internally tagged by invoice id.
func (s *Store) Read(invoiceID int64, fileName string) ([]byte, error) {
	path, err := s.Resolve(fileName)
	if err != nil {
		return nil, err
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		s.logger.Error().
			Int64("invoice_id", invoiceID).
			Err(err).
			Msg("receipt file not accessible")
		return nil, ErrNotFound
	}
	resolvedRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		s.logger.Error().
			Int64("invoice_id", invoiceID).
			Err(err).
			Msg("receipts root not accessible")
		return nil, ErrNotFound
	}
	if filepath.Dir(resolved) != resolvedRoot {
		s.logger.Warn().
			Int64("invoice_id", invoiceID).
			Msg("receipt path resolved outside receipts root")
		return nil, ErrAccessDenied
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		s.logger.Error().
			Int64("invoice_id", invoiceID).
			Err(err).
			Msg("receipt file read failed")
		return nil, ErrNotFound
	}
	return content, nil
}
