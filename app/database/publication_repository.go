package database

import (
	"fmt"
	"time"
)

// PublicationRepositoryImpl handles database operations for the publish
// history.
type PublicationRepositoryImpl struct {
	db *DB
}

var _ PublicationRepository = (*PublicationRepositoryImpl)(nil)

func NewPublicationRepository(db *DB) *PublicationRepositoryImpl {
	return &PublicationRepositoryImpl{db: db}
}

// SlugPublished reports whether a post with this slug was already published
// by this bot. The local check runs before the remote slug search so a
// repeat run stays cheap.
func (r *PublicationRepositoryImpl) SlugPublished(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM publications WHERE slug = ?`, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// CountPublishedSince counts publications recorded at or after since.
// Backs the one-article-per-day cap.
func (r *PublicationRepositoryImpl) CountPublishedSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM publications WHERE published_at >= ?`,
		since.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count publications: %w", err)
	}
	return count, nil
}

func (r *PublicationRepositoryImpl) RecordPublication(p Publication) error {
	publishedAt := p.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO publications (slug, title, source_link, post_id, published_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Slug, p.Title, p.SourceLink, p.PostID, publishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record publication: %w", err)
	}
	return nil
}

func (r *PublicationRepositoryImpl) RecentPublications(limit int) ([]Publication, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, title, source_link, post_id, published_at
		FROM publications
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query publications: %w", err)
	}
	defer rows.Close()

	var publications []Publication
	for rows.Next() {
		var p Publication
		var publishedAt string
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.SourceLink, &p.PostID, &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			p.PublishedAt = parsed
		}
		publications = append(publications, p)
	}

	return publications, rows.Err()
}

func (r *PublicationRepositoryImpl) GetPublicationCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM publications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count publications: %w", err)
	}
	return count, nil
}
