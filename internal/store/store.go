package store

import (
	"context"
	"fmt"
	"time"

	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/jackc/pgx/v5"
)

// Store mirrors enrollments and their captured images into PostgreSQL.
type Store struct {
	conn *pgx.Conn
}

// Enrollment is one row of the enrollments table with its image count.
type Enrollment struct {
	RowID      int64
	Record     types.EnrollmentRecord
	ImageCount int
	CreatedAt  time.Time
}

// New establishes a connection to the database.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS enrollments (
			id BIGSERIAL PRIMARY KEY,
			person_id TEXT NOT NULL,
			name TEXT NOT NULL,
			branch TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS enrollments_person_idx ON enrollments (person_id);
		CREATE TABLE IF NOT EXISTS face_images (
			id BIGSERIAL PRIMARY KEY,
			enrollment_id BIGINT REFERENCES enrollments(id) ON DELETE CASCADE,
			sequence INT NOT NULL,
			path TEXT NOT NULL,
			captured_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// RecordEnrollment inserts rec and returns its row ID. Like the text log, the
// same person ID may be recorded any number of times.
func (s *Store) RecordEnrollment(ctx context.Context, rec types.EnrollmentRecord) (int64, error) {
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO enrollments (person_id, name, branch)
		VALUES ($1, $2, $3)
		RETURNING id
	`, rec.ID, rec.Name, rec.Branch).Scan(&id)
	return id, err
}

// AddImage links a captured image to an enrollment.
func (s *Store) AddImage(ctx context.Context, enrollmentID int64, img types.CapturedImage) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO face_images (enrollment_id, sequence, path)
		VALUES ($1, $2, $3)
	`, enrollmentID, img.Sequence, img.Path)
	return err
}

// ListEnrollments returns every enrollment, oldest first, with its image count.
func (s *Store) ListEnrollments(ctx context.Context) ([]Enrollment, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT e.id, e.person_id, e.name, e.branch, e.created_at, COUNT(f.id)
		FROM enrollments e
		LEFT JOIN face_images f ON f.enrollment_id = e.id
		GROUP BY e.id
		ORDER BY e.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.RowID, &e.Record.ID, &e.Record.Name, &e.Record.Branch, &e.CreatedAt, &e.ImageCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Reset drops all application tables to clear the database state.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS face_images CASCADE;
		DROP TABLE IF EXISTS enrollments CASCADE;
	`)
	return err
}
