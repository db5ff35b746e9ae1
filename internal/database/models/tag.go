package models

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"mediashelf/internal/utils"
)

type Tag struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MediaCount int     `json:"mediaCount"`
	CoverImage *string `json:"coverImage,omitempty"`
}

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns every tag with the number of records carrying it and the
// cover of the most recently added one that has a cover.
func (r *TagRepository) List(ctx context.Context) ([]Tag, error) {
	query := `SELECT t.id, t.name,
        COALESCE((SELECT COUNT(*) FROM media_tags mt WHERE mt.tag_id = t.id), 0) AS media_count,
        (SELECT m.cover_image FROM media m JOIN media_tags mt ON mt.media_id = m.id
         WHERE mt.tag_id = t.id AND m.cover_image IS NOT NULL
         ORDER BY m.date_added DESC, m.rowid DESC LIMIT 1) AS cover_image
        FROM tags t ORDER BY t.name_key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.MediaCount, &t.CoverImage); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteOrphans removes tags no record references and reports how many went.
func (r *TagRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE NOT EXISTS (SELECT 1 FROM media_tags mt WHERE mt.tag_id = tags.id)`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TagRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n)
	return n, err
}

// ensureTag returns the id of the tag called name, creating it when missing.
// Names match on utils.TagKey, so any casing finds the first spelling stored.
func ensureTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	key := utils.TagKey(name)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tags (id, name, name_key) VALUES (?, ?, ?) ON CONFLICT (name_key) DO NOTHING`,
		uuid.NewString(), name, key); err != nil {
		return "", err
	}
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name_key = ?`, key).Scan(&id)
	return id, err
}
