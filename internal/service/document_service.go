package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"e261-voice-be/internal/dto"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
)

const (
	MaxDocumentSize  = 10 * 1024 * 1024
	uploadTimeLayout = "20060102_150405"
)

var (
	allowedDocumentExt = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
	reDocumentType     = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,39}$`)
	// {document_type}_{YYYYMMDD_HHMMSS}[_n]{ext}
	reStoredDocument = regexp.MustCompile(`^([a-z0-9][a-z0-9_-]*?)_(\d{8}_\d{6})(?:_\d+)?(\.[a-z]+)$`)

	ErrDocumentNotFound = fiber.NewError(fiber.StatusNotFound, "document not found")
)

// SessionLookup is the part of the conversation manager the document store
// needs.
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (*conversation.Session, error)
}

type StoredDocument struct {
	Path string
	dto.DocumentResponse
}

type IDocumentService interface {
	Upload(ctx context.Context, sessionID, documentType, originalName string, content []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, sessionID string) (*dto.DocumentListResponse, error)
	Delete(ctx context.Context, sessionID, filename string) error
	Stored(ctx context.Context, sessionID string) ([]StoredDocument, error)
}

type documentService struct {
	dir      string
	sessions SessionLookup
	now      func() time.Time
	logger   logger.ILogger
}

func NewDocumentService(dir string, sessions SessionLookup, log logger.ILogger) IDocumentService {
	return &documentService{
		dir:      dir,
		sessions: sessions,
		now:      time.Now,
		logger:   log,
	}
}

func (s *documentService) sessionDir(ctx context.Context, sessionID string) (string, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return "", err
	}
	// session ids are UUIDs; anything with a separator cannot be one
	if strings.ContainsAny(sessionID, `/\.`) {
		return "", conversation.ErrNotFound
	}
	return filepath.Join(s.dir, sessionID), nil
}

func (s *documentService) Upload(ctx context.Context, sessionID, documentType, originalName string, content []byte) (*dto.UploadDocumentResponse, error) {
	dir, err := s.sessionDir(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	documentType = strings.ToLower(strings.TrimSpace(documentType))
	if !reDocumentType.MatchString(documentType) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid document type")
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedDocumentExt[ext] {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid file type. Allowed: PDF, JPG, PNG, GIF")
	}
	if len(content) > MaxDocumentSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "File too large. Maximum size: 10MB")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	base := fmt.Sprintf("%s_%s", documentType, s.now().Format(uploadTimeLayout))
	name := base + ext
	for n := 2; ; n++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store document: %w", err)
		}
		_, werr := f.Write(content)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(f.Name())
			return nil, fmt.Errorf("store document: %w", errors.Join(werr, cerr))
		}
		break
	}

	s.logger.Info("DOCUMENT", "Document uploaded", map[string]interface{}{
		"session_id": sessionID,
		"filename":   name,
		"size":       len(content),
	})

	return &dto.UploadDocumentResponse{
		Message:      "File uploaded successfully",
		Filename:     name,
		DocumentType: documentType,
	}, nil
}

func (s *documentService) Stored(ctx context.Context, sessionID string) ([]StoredDocument, error) {
	dir, err := s.sessionDir(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var docs []StoredDocument
	for _, e := range entries {
		m := reStoredDocument.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		uploaded, _ := time.ParseInLocation(uploadTimeLayout, m[2], time.Local)
		docs = append(docs, StoredDocument{
			Path: filepath.Join(dir, e.Name()),
			DocumentResponse: dto.DocumentResponse{
				Filename:     e.Name(),
				DocumentType: m[1],
				FileSize:     info.Size(),
				UploadTime:   uploaded,
			},
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

func (s *documentService) List(ctx context.Context, sessionID string) (*dto.DocumentListResponse, error) {
	docs, err := s.Stored(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := &dto.DocumentListResponse{Documents: make([]*dto.DocumentResponse, 0, len(docs))}
	for i := range docs {
		out.Documents = append(out.Documents, &docs[i].DocumentResponse)
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, sessionID, filename string) error {
	dir, err := s.sessionDir(ctx, sessionID)
	if err != nil {
		return err
	}
	if filepath.Base(filename) != filename || !reStoredDocument.MatchString(filename) {
		return ErrDocumentNotFound
	}
	if err := os.Remove(filepath.Join(dir, filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrDocumentNotFound
		}
		return err
	}
	s.logger.Info("DOCUMENT", "Document deleted", map[string]interface{}{"session_id": sessionID, "filename": filename})
	return nil
}
