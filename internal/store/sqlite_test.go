package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/reviewmate/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Len(t, id, 26)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// --- Reviews ---

func sampleReview(userID string) *models.Review {
	return &models.Review{
		UserID:       userID,
		OriginalCode: "var x = 1;",
		ImprovedCode: "const x = 1;",
		Explanation:  "use const",
		Category:     "Best Practices",
		Severity:     "minor",
		Language:     "javascript",
		Framework:    "None",
		Metrics: models.CodeMetrics{
			LinesOfCode:          1,
			ComplexityScore:      1,
			CognitiveComplexity:  0,
			IssuesFound:          1,
			QualityRating:        models.QualityA,
			MaintainabilityIndex: 88,
		},
	}
}

func TestReviewCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Create
	r := sampleReview("42")
	err := s.CreateReview(ctx, r)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	// Get
	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.UserID, got.UserID)
	assert.Equal(t, r.OriginalCode, got.OriginalCode)
	assert.Equal(t, r.ImprovedCode, got.ImprovedCode)
	assert.Equal(t, r.Category, got.Category)
	assert.Equal(t, r.Language, got.Language)
	assert.Equal(t, r.Metrics, got.Metrics)
	assert.WithinDuration(t, r.CreatedAt, got.CreatedAt, time.Second)

	// List
	reviews, err := s.ListReviewsByUser(ctx, "42", 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	reviews, err = s.ListReviewsByUser(ctx, "someone-else", 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 0)

	// Delete
	err = s.DeleteReview(ctx, r.ID)
	require.NoError(t, err)

	_, err = s.GetReview(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReview_DefaultsLanguage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleReview("1")
	r.Language = ""
	require.NoError(t, s.CreateReview(ctx, r))

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.Language)
}

func TestGetReview_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetReview(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestDeleteReview_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteReview(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReviewsByUser_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := sampleReview("7")
		r.Explanation = fmt.Sprintf("review %d", i)
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateReview(ctx, r))
	}

	reviews, err := s.ListReviewsByUser(ctx, "7", 0)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "review 2", reviews[0].Explanation)
	assert.Equal(t, "review 1", reviews[1].Explanation)
	assert.Equal(t, "review 0", reviews[2].Explanation)
}

func TestListReviewsByUser_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < DefaultListLimit+5; i++ {
		require.NoError(t, s.CreateReview(ctx, sampleReview("7")))
	}

	reviews, err := s.ListReviewsByUser(ctx, "7", 0)
	require.NoError(t, err)
	assert.Len(t, reviews, DefaultListLimit, "default cap")

	reviews, err = s.ListReviewsByUser(ctx, "7", 3)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}

func TestListReviews_AllUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateReview(ctx, sampleReview("1")))
	require.NoError(t, s.CreateReview(ctx, sampleReview("2")))
	require.NoError(t, s.CreateReview(ctx, sampleReview("local")))

	reviews, err := s.ListReviews(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)

	reviews, err = s.ListReviews(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

// --- Users ---

func TestUpsertUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &models.User{GitHubID: 1001, Login: "octocat", Name: "The Octocat", AccessToken: "gho_first"}
	require.NoError(t, s.UpsertUser(ctx, u))

	got, err := s.GetUser(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "octocat", got.Login)
	assert.Equal(t, "gho_first", got.AccessToken)
	created := got.CreatedAt

	// Second sign-in refreshes profile and token, keeps created_at
	u2 := &models.User{GitHubID: 1001, Login: "octocat", Name: "Mona", AvatarURL: "https://a/1", AccessToken: "gho_second"}
	require.NoError(t, s.UpsertUser(ctx, u2))

	got, err = s.GetUser(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "Mona", got.Name)
	assert.Equal(t, "https://a/1", got.AvatarURL)
	assert.Equal(t, "gho_second", got.AccessToken)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
