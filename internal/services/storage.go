package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DocumentStore persists uploaded thesis documents. References are opaque
// to callers; the pipeline never assumes a particular backing medium.
type DocumentStore interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

type localDocumentStore struct {
	uploadPath string
}

// NewLocalDocumentStore stores documents as files under uploadPath.
func NewLocalDocumentStore(uploadPath string) (DocumentStore, error) {
	if err := os.MkdirAll(uploadPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &localDocumentStore{uploadPath: uploadPath}, nil
}

func (s *localDocumentStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	ref := fmt.Sprintf("thesis_%s%s", uuid.New().String(), extensionForMime(mimeType))

	filePath := filepath.Join(s.uploadPath, ref)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}

	return ref, nil
}

func (s *localDocumentStore) Get(ctx context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.uploadPath, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func (s *localDocumentStore) Delete(ctx context.Context, ref string) error {
	if err := os.Remove(filepath.Join(s.uploadPath, ref)); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case MimeDOCX:
		return ".docx"
	default:
		return ".pdf"
	}
}
