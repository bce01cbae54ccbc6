package store

import (
	"context"
	"errors"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lesson asset metadata operations. The catalog service owns lessons;
// this store only mirrors the object-store keys the gate needs.

// SaveLesson upserts a lesson's asset metadata.
func (s *Store) SaveLesson(ctx context.Context, lesson *models.Lesson) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"video_key", "document_key", "updated_at"}),
		}).
		Create(lesson).Error
}

// GetLesson retrieves a lesson's asset metadata.
func (s *Store) GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// ResolveAssetKey returns the object-store key of a lesson's asset.
// ErrRecordNotFound if the lesson is unknown, ErrNoAsset if the lesson
// has no asset of the requested kind.
func (s *Store) ResolveAssetKey(ctx context.Context, lessonID int64, kind string) (string, error) {
	lesson, err := s.GetLesson(ctx, lessonID)
	if err != nil {
		return "", err
	}

	var key string
	switch kind {
	case config.AssetKindVideo:
		key = lesson.VideoKey
	case config.AssetKindDocument:
		key = lesson.DocumentKey
	default:
		return "", ErrNoAsset
	}

	if key == "" {
		return "", ErrNoAsset
	}
	return key, nil
}
