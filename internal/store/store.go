package store

import (
	"context"
	"errors"

	"github.com/joescharf/reviewmate/internal/models"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps review listings when no limit is given.
const DefaultListLimit = 50

// Store defines the persistence interface for reviewmate.
type Store interface {
	// Reviews
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	// ListReviewsByUser returns newest first; limit <= 0 means DefaultListLimit.
	ListReviewsByUser(ctx context.Context, userID string, limit int) ([]*models.Review, error)
	// ListReviews returns every user's reviews newest first; limit <= 0 means all.
	ListReviews(ctx context.Context, limit int) ([]*models.Review, error)
	DeleteReview(ctx context.Context, id string) error

	// Users
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, githubID int64) (*models.User, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
