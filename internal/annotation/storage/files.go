package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// Export Storage
// ============================================================

// ExportStorage keeps a server-side copy of every exported annotation
// file, grouped per session token.
type ExportStorage struct {
	root string
}

func NewExportStorage(root string) *ExportStorage {
	return &ExportStorage{root: root}
}

func (s *ExportStorage) SessionDir(token string) string {
	return filepath.Join(s.root, token)
}

func (s *ExportStorage) ExportPath(token, filename string) string {
	return filepath.Join(s.SessionDir(token), filename)
}

func (s *ExportStorage) ensureSessionDir(token string) error {
	if err := os.MkdirAll(s.SessionDir(token), 0o755); err != nil {
		return fmt.Errorf("mkdir export dir: %w", err)
	}
	return nil
}

// SaveExport writes one export file under the session's directory.
func (s *ExportStorage) SaveExport(token, filename string, data []byte) error {
	if err := s.ensureSessionDir(token); err != nil {
		return err
	}
	return os.WriteFile(s.ExportPath(token, filename), data, 0o644)
}

// ListExports returns the filenames already exported for a session.
func (s *ExportStorage) ListExports(token string) ([]string, error) {
	entries, err := os.ReadDir(s.SessionDir(token))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
