package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bilgisen/signage/internal/models"
)

// ErrNotFound is returned when a screen or notice does not exist
var ErrNotFound = errors.New("storage: not found")

// ScreenRepository persists screens
type ScreenRepository interface {
	GetScreen(ctx context.Context, id string) (*models.Screen, error)
	ListScreens(ctx context.Context) ([]models.Screen, error)
	// CreateScreen assigns the next sequential id and stores the screen
	CreateScreen(ctx context.Context, screen models.Screen) (*models.Screen, error)
	PutScreen(ctx context.Context, screen models.Screen) error
	DeleteScreen(ctx context.Context, id string) error
}

// NoticeRepository persists notices in insertion order
type NoticeRepository interface {
	ListNotices(ctx context.Context) ([]models.Notice, error)
	GetNotice(ctx context.Context, id string) (*models.Notice, error)
	// PutNotice replaces an existing notice in place or appends a new one
	PutNotice(ctx context.Context, notice models.Notice) error
	DeleteNotice(ctx context.Context, id string) (*models.Notice, error)
}

// Repository is the full record store used by the admin API
type Repository interface {
	ScreenRepository
	NoticeRepository
	Close() error
}

// NextScreenID returns the id following the highest numeric id, zero padded
// to three digits ("001", "002", ...). Non numeric ids are ignored.
func NextScreenID(screens []models.Screen) string {
	maxID := 0
	for _, s := range screens {
		if n, err := strconv.Atoi(s.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("%03d", maxID+1)
}

func indexOfScreen(screens []models.Screen, id string) int {
	for i, s := range screens {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func indexOfNotice(notices []models.Notice, id string) int {
	for i, n := range notices {
		if n.ID == id {
			return i
		}
	}
	return -1
}
