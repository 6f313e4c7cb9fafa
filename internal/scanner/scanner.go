package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type of archive file
type Kind string

const (
	KindContacts Kind = "contacts" // .vcf
	KindMessages Kind = "messages" // .vmg
)

// KindOf classifies a path by extension, case-insensitively.
// The second result is false for files that are not part of an archive.
func KindOf(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vcf":
		return KindContacts, true
	case ".vmg":
		return KindMessages, true
	default:
		return "", false
	}
}

// File is an archive file found by a scan
type File struct {
	Path string // relative to the root, forward slashes
	Kind Kind
}

// Scanner scans directories for .vcf and .vmg files
type Scanner struct {
	rootPath string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// GetRootPath returns the root path for resolving relative paths
func (s *Scanner) GetRootPath() string {
	return s.rootPath
}

// Scan recursively scans for archive files and returns paths relative to rootPath
func (s *Scanner) Scan() ([]File, error) {
	var files []File

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			return nil
		}

		kind, ok := KindOf(path)
		if !ok {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		// Forward slashes keep stored paths valid when the archive moves between systems
		files = append(files, File{Path: filepath.ToSlash(relPath), Kind: kind})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return files, nil
}

// Count counts archive files without collecting them
func (s *Scanner) Count() (int, error) {
	count := 0

	err := filepath.Walk(s.rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if _, ok := KindOf(path); ok && !info.IsDir() {
			count++
		}

		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}
