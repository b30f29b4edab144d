package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bilgisen/signage/internal/models"
)

const (
	screensFile = "screens.json"
	noticesFile = "notices.json"
)

type screensDocument struct {
	Screens []models.Screen `json:"screens"`
}

// FileStore keeps screens and notices in two JSON documents under basePath
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

func NewFileStore(basePath string) (*FileStore, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	s := &FileStore{basePath: basePath}

	// Seed empty documents so readers never see a missing file on first run
	if err := s.seed(screensFile, screensDocument{Screens: []models.Screen{}}); err != nil {
		return nil, err
	}
	if err := s.seed(noticesFile, []models.Notice{}); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) seed(name string, empty interface{}) error {
	path := filepath.Join(s.basePath, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return s.writeJSON(name, empty)
}

func (s *FileStore) Close() error {
	return nil
}

// GetScreen retrieves a screen by its ID
func (s *FileStore) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		s.mu.RLock()
		defer s.mu.RUnlock()

		doc, err := s.readScreens()
		if err != nil {
			return nil, err
		}
		i := indexOfScreen(doc.Screens, id)
		if i < 0 {
			return nil, fmt.Errorf("screen %s: %w", id, ErrNotFound)
		}
		screen := doc.Screens[i]
		return &screen, nil
	}
}

// ListScreens returns every screen in stored order
func (s *FileStore) ListScreens(ctx context.Context) ([]models.Screen, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		s.mu.RLock()
		defer s.mu.RUnlock()

		doc, err := s.readScreens()
		if err != nil {
			return nil, err
		}
		return doc.Screens, nil
	}
}

func (s *FileStore) CreateScreen(ctx context.Context, screen models.Screen) (*models.Screen, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		doc, err := s.readScreens()
		if err != nil {
			return nil, err
		}
		screen.ID = NextScreenID(doc.Screens)
		doc.Screens = append(doc.Screens, screen)
		if err := s.writeJSON(screensFile, doc); err != nil {
			return nil, err
		}
		return &screen, nil
	}
}

// PutScreen replaces an existing screen
func (s *FileStore) PutScreen(ctx context.Context, screen models.Screen) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		doc, err := s.readScreens()
		if err != nil {
			return err
		}
		i := indexOfScreen(doc.Screens, screen.ID)
		if i < 0 {
			return fmt.Errorf("screen %s: %w", screen.ID, ErrNotFound)
		}
		doc.Screens[i] = screen
		return s.writeJSON(screensFile, doc)
	}
}

func (s *FileStore) DeleteScreen(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		doc, err := s.readScreens()
		if err != nil {
			return err
		}
		i := indexOfScreen(doc.Screens, id)
		if i < 0 {
			return fmt.Errorf("screen %s: %w", id, ErrNotFound)
		}
		doc.Screens = append(doc.Screens[:i], doc.Screens[i+1:]...)
		return s.writeJSON(screensFile, doc)
	}
}

// ListNotices returns every notice in insertion order
func (s *FileStore) ListNotices(ctx context.Context) ([]models.Notice, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		s.mu.RLock()
		defer s.mu.RUnlock()

		return s.readNotices()
	}
}

func (s *FileStore) GetNotice(ctx context.Context, id string) (*models.Notice, error) {
	notices, err := s.ListNotices(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfNotice(notices, id)
	if i < 0 {
		return nil, fmt.Errorf("notice %s: %w", id, ErrNotFound)
	}
	return &notices[i], nil
}

func (s *FileStore) PutNotice(ctx context.Context, notice models.Notice) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		notices, err := s.readNotices()
		if err != nil {
			return err
		}
		if i := indexOfNotice(notices, notice.ID); i >= 0 {
			notices[i] = notice
		} else {
			notices = append(notices, notice)
		}
		return s.writeJSON(noticesFile, notices)
	}
}

// DeleteNotice removes a notice and returns the removed record
func (s *FileStore) DeleteNotice(ctx context.Context, id string) (*models.Notice, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		s.mu.Lock()
		defer s.mu.Unlock()

		notices, err := s.readNotices()
		if err != nil {
			return nil, err
		}
		i := indexOfNotice(notices, id)
		if i < 0 {
			return nil, fmt.Errorf("notice %s: %w", id, ErrNotFound)
		}
		removed := notices[i]
		notices = append(notices[:i], notices[i+1:]...)
		if err := s.writeJSON(noticesFile, notices); err != nil {
			return nil, err
		}
		return &removed, nil
	}
}

func (s *FileStore) readScreens() (screensDocument, error) {
	var doc screensDocument
	if err := s.readJSON(screensFile, &doc); err != nil {
		return doc, err
	}
	if doc.Screens == nil {
		doc.Screens = []models.Screen{}
	}
	return doc, nil
}

func (s *FileStore) readNotices() ([]models.Notice, error) {
	notices := []models.Notice{}
	if err := s.readJSON(noticesFile, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}

func (s *FileStore) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// writeJSON writes through a temp file and rename so readers never observe a
// partially written document
func (s *FileStore) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.basePath, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.basePath, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
