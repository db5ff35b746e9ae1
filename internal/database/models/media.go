package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediashelf/internal/utils"
)

var (
	ErrNotFound  = errors.New("library: record not found")
	ErrDuplicate = errors.New("library: item already saved")
)

// timeLayout keeps date_added lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Media is a saved library record. ExternalID is the provider id the item
// was fetched with; ID is local to the library.
type Media struct {
	ID             string          `json:"libraryId"`
	ExternalID     string          `json:"id"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Year           string          `json:"year"`
	CoverImage     *string         `json:"coverImage,omitempty"`
	Rating         float64         `json:"rating"`
	Description    *string         `json:"description,omitempty"`
	Creator        *string         `json:"creator,omitempty"`
	Tags           []string        `json:"tags"`
	AdditionalInfo json.RawMessage `json:"additionalInfo,omitempty"`
	DateAdded      time.Time       `json:"dateAdded"`
	ReviewText     *string         `json:"reviewText,omitempty"`
}

type ListFilter struct {
	Type string
	Tag  string
}

type LibraryRepository struct {
	db *sql.DB
}

func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

const mediaColumns = `id, external_id, type, title, year, cover_image, rating, description, creator,
               date_added, review_text, additional_info`

// Create inserts media, assigning its library id and date added. Saving the
// same provider item twice returns ErrDuplicate.
func (r *LibraryRepository) Create(ctx context.Context, media *Media) error {
	media.ID = uuid.NewString()
	media.DateAdded = time.Now().UTC().Truncate(time.Millisecond)

	var info *string
	if len(media.AdditionalInfo) > 0 {
		s := string(media.AdditionalInfo)
		info = &s
	}

	query := `
        INSERT INTO media (` + mediaColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query, media.ID, media.ExternalID, media.Type, media.Title, media.Year,
		media.CoverImage, media.Rating, media.Description, media.Creator,
		media.DateAdded.Format(timeLayout), media.ReviewText, info)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", media.Type, media.ExternalID, ErrDuplicate)
		}
		return err
	}
	if media.Tags == nil {
		media.Tags = []string{}
	}
	return nil
}

func (r *LibraryRepository) GetByID(ctx context.Context, id string) (*Media, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("media %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	tags, err := r.tagNames(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Tags = tags[id]
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

// List returns saved media, newest first, optionally narrowed by type and tag
// name (case-insensitive).
func (r *LibraryRepository) List(ctx context.Context, filter ListFilter) ([]Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media`
	var where []string
	var args []any
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Tag != "" {
		where = append(where, `id IN (
            SELECT mt.media_id FROM media_tags mt JOIN tags t ON t.id = mt.tag_id
            WHERE t.name_key = ?)`)
		args = append(args, utils.TagKey(filter.Tag))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_added DESC, rowid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mediaList := []Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		mediaList = append(mediaList, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.tagNames(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range mediaList {
		mediaList[i].Tags = tags[mediaList[i].ID]
		if mediaList[i].Tags == nil {
			mediaList[i].Tags = []string{}
		}
	}
	return mediaList, nil
}

func (r *LibraryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveReview updates rating and review text and replaces the tag set of a
// record in a single transaction. Tags are created on first use.
func (r *LibraryRepository) SaveReview(ctx context.Context, id string, rating float64, reviewText *string, tags []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE media SET rating = ?, review_text = ? WHERE id = ?`, rating, reviewText, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("media %s: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM media_tags WHERE media_id = ?`, id); err != nil {
		return err
	}
	for _, name := range tags {
		tagID, err := ensureTag(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO media_tags (media_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, id, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountByType returns the number of saved records per media type.
func (r *LibraryRepository) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM media GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// tagNames maps media id to its tag names. An empty mediaID loads every record.
func (r *LibraryRepository) tagNames(ctx context.Context, mediaID string) (map[string][]string, error) {
	query := `SELECT mt.media_id, t.name FROM media_tags mt JOIN tags t ON t.id = mt.tag_id`
	var args []any
	if mediaID != "" {
		query += ` WHERE mt.media_id = ?`
		args = append(args, mediaID)
	}
	query += ` ORDER BY t.name_key`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		tags[id] = append(tags[id], name)
	}
	return tags, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (*Media, error) {
	var m Media
	var dateAdded string
	var info sql.NullString
	err := s.Scan(&m.ID, &m.ExternalID, &m.Type, &m.Title, &m.Year, &m.CoverImage, &m.Rating,
		&m.Description, &m.Creator, &dateAdded, &m.ReviewText, &info)
	if err != nil {
		return nil, err
	}
	if m.DateAdded, err = time.Parse(timeLayout, dateAdded); err != nil {
		return nil, fmt.Errorf("media %s: bad date_added %q: %w", m.ID, dateAdded, err)
	}
	if info.Valid && info.String != "" {
		m.AdditionalInfo = json.RawMessage(info.String)
	}
	return &m, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed")
}
