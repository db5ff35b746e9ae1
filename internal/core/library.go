package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"mediashelf/internal/database/models"
	"mediashelf/internal/media"
	"mediashelf/internal/utils"
)

var (
	ErrNotFound         = models.ErrNotFound
	ErrAlreadyInLibrary = models.ErrDuplicate
	ErrInvalidReview    = errors.New("invalid review")
)

type LibraryFilter struct {
	Type string
	Tag  string
}

// Review is the user editable part of a library record.
type Review struct {
	Rating     float64  `json:"rating"`
	ReviewText *string  `json:"reviewText"`
	Tags       []string `json:"tags"`
}

// AddToLibrary fetches the current catalog details for the item and saves
// them as a new library record.
func (m *Manager) AddToLibrary(ctx context.Context, mediaType, id string) (*models.Media, error) {
	item, err := m.GetDetails(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}

	record := &models.Media{
		ExternalID:  item.ID,
		Type:        string(item.Type),
		Title:       item.Title,
		Year:        item.Year,
		CoverImage:  item.CoverImage,
		Rating:      item.Rating,
		Description: item.Description,
		Creator:     item.Creator,
		Tags:        []string{},
	}
	if item.AdditionalInfo != nil {
		info, err := json.Marshal(item.AdditionalInfo)
		if err != nil {
			return nil, fmt.Errorf("encoding additional info: %w", err)
		}
		record.AdditionalInfo = info
	}

	if err := m.library.Create(ctx, record); err != nil {
		return nil, err
	}
	m.logger.Ctx(ctx).Info().
		Str("library_id", record.ID).
		Str("type", record.Type).
		Str("title", record.Title).
		Msg("added to library")
	return record, nil
}

func (m *Manager) ListLibrary(ctx context.Context, filter LibraryFilter) ([]models.Media, error) {
	if filter.Type != "" {
		if _, err := media.ParseType(filter.Type); err != nil {
			return nil, err
		}
	}
	return m.library.List(ctx, models.ListFilter{Type: filter.Type, Tag: utils.NormalizeTagName(filter.Tag)})
}

func (m *Manager) GetLibraryItem(ctx context.Context, libraryID string) (*models.Media, error) {
	return m.library.GetByID(ctx, libraryID)
}

func (m *Manager) RemoveFromLibrary(ctx context.Context, libraryID string) error {
	if err := m.library.Delete(ctx, libraryID); err != nil {
		return err
	}
	m.logger.Ctx(ctx).Info().Str("library_id", libraryID).Msg("removed from library")
	return nil
}

// SaveReview replaces the rating, review text and tags of a library record
// and returns the updated record.
func (m *Manager) SaveReview(ctx context.Context, libraryID string, review Review) (*models.Media, error) {
	if math.IsNaN(review.Rating) || review.Rating < 0 || review.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidReview)
	}

	var text *string
	if review.ReviewText != nil {
		if t := strings.TrimSpace(*review.ReviewText); t != "" {
			text = &t
		}
	}

	if err := m.library.SaveReview(ctx, libraryID, review.Rating, text, utils.UniqueTags(review.Tags)); err != nil {
		return nil, err
	}
	return m.library.GetByID(ctx, libraryID)
}

func (m *Manager) ListTags(ctx context.Context) ([]models.Tag, error) {
	return m.tags.List(ctx)
}

// PruneOrphanTags deletes tags that no library record uses any more.
func (m *Manager) PruneOrphanTags(ctx context.Context) (int64, error) {
	n, err := m.tags.DeleteOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning tags: %w", err)
	}
	if n > 0 {
		m.logger.Info().Int64("removed", n).Msg("pruned orphaned tags")
	}
	return n, nil
}
