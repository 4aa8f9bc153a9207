// Package archive extracts dump archives into working directories.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/thread-analysis/pkg/errors"
	"github.com/thread-analysis/pkg/utils"
)

// Extractor unpacks zip archives of thread dumps.
type Extractor struct {
	logger utils.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(logger utils.Logger) *Extractor {
	if logger == nil {
		logger = utils.NewNullLogger()
	}
	return &Extractor{logger: logger}
}

// ExtractZip unpacks the archive at zipPath into a fresh temporary
// directory and returns that directory. The caller owns the directory
// and should remove it when done.
func (e *Extractor) ExtractZip(zipPath string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to open archive %s", zipPath), err)
	}
	defer r.Close()

	destDir, err := os.MkdirTemp("", "thread-dumps-*")
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeArchiveError, "failed to create extraction directory", err)
	}

	for _, f := range r.File {
		if err := e.extractFile(f, destDir); err != nil {
			os.RemoveAll(destDir)
			return "", err
		}
	}

	e.logger.Debug("extracted %d entries from %s to %s", len(r.File), zipPath, destDir)
	return destDir, nil
}

func (e *Extractor) extractFile(f *zip.File, destDir string) error {
	// Reject entries that would escape the destination directory.
	target := filepath.Join(destDir, filepath.Clean(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return apperrors.New(apperrors.CodeArchiveError, fmt.Sprintf("illegal entry path in archive: %s", f.Name))
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to create directory %s", f.Name), err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to create parent directory for %s", f.Name), err)
	}

	src, err := f.Open()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to open archive entry %s", f.Name), err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to create %s", target), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.Wrap(apperrors.CodeArchiveError, fmt.Sprintf("failed to extract %s", f.Name), err)
	}
	return nil
}
