package database

import (
	"time"
)

type PublicationRepository interface {
	SlugPublished(slug string) (bool, error)
	CountPublishedSince(since time.Time) (int, error)
	RecordPublication(p Publication) error
	RecentPublications(limit int) ([]Publication, error)
	GetPublicationCount() (int, error)
}
