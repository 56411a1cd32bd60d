package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/reviewmate/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection serializes
	// concurrent HTTP requests instead of failing with "database is locked".
	db.SetMaxOpenConns(1)

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// NewID generates a new ULID string.
func NewID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Reviews ---

const reviewColumns = `id, user_id, original_code, improved_code, explanation, category, severity, language, framework,
	lines_of_code, complexity_score, cognitive_complexity, issues_found, quality_rating, maintainability_index, created_at`

// CreateReview inserts r, assigning an ID and, when unset, CreatedAt.
func (s *SQLiteStore) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Language == "" {
		r.Language = "unknown"
	}

	m := r.Metrics
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.OriginalCode, r.ImprovedCode, r.Explanation, r.Category, r.Severity, r.Language, r.Framework,
		m.LinesOfCode, m.ComplexityScore, m.CognitiveComplexity, m.IssuesFound, string(m.QualityRating), m.MaintainabilityIndex,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListReviewsByUser(ctx context.Context, userID string, limit int) ([]*models.Review, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
}

func (s *SQLiteStore) ListReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	if limit <= 0 {
		return s.queryReviews(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id DESC`)
	}
	return s.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(sc scanner) (*models.Review, error) {
	r := &models.Review{}
	m := &r.Metrics
	var rating string
	err := sc.Scan(&r.ID, &r.UserID, &r.OriginalCode, &r.ImprovedCode, &r.Explanation, &r.Category, &r.Severity, &r.Language, &r.Framework,
		&m.LinesOfCode, &m.ComplexityScore, &m.CognitiveComplexity, &m.IssuesFound, &rating, &m.MaintainabilityIndex,
		&r.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.QualityRating = models.QualityRating(rating)
	return r, nil
}

// --- Users ---

// UpsertUser inserts u or refreshes the profile and token of an existing
// user with the same GitHub ID. CreatedAt is preserved on update.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (github_id, login, name, avatar_url, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			access_token = excluded.access_token,
			updated_at = excluded.updated_at`,
		u.GitHubID, u.Login, u.Name, u.AvatarURL, u.AccessToken, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, githubID int64) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT github_id, login, name, avatar_url, access_token, created_at, updated_at
		FROM users WHERE github_id = ?`, githubID,
	).Scan(&u.GitHubID, &u.Login, &u.Name, &u.AvatarURL, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", githubID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
