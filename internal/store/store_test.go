package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreIntegration runs a full integration test against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("facenroll_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// --- Test Scenarios ---

	rec := types.EnrollmentRecord{ID: "42", Name: "ada", Branch: "cse"}
	first, err := s.RecordEnrollment(ctx, rec)
	if err != nil {
		t.Fatalf("RecordEnrollment failed: %v", err)
	}

	for seq := 1; seq <= 3; seq++ {
		img := types.CapturedImage{OwnerID: "42", Sequence: seq, Path: fmt.Sprintf("Data/42_%d.jpg", seq)}
		if err := s.AddImage(ctx, first, img); err != nil {
			t.Fatalf("AddImage failed: %v", err)
		}
	}

	// Same person again: no dedup, a second row
	second, err := s.RecordEnrollment(ctx, rec)
	if err != nil {
		t.Fatalf("RecordEnrollment (repeat) failed: %v", err)
	}
	if second == first {
		t.Errorf("Expected a new row for a repeated enrollment, got the same ID %d", first)
	}

	list, err := s.ListEnrollments(ctx)
	if err != nil {
		t.Fatalf("ListEnrollments failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 enrollments, got %d", len(list))
	}
	if list[0].Record != rec || list[0].ImageCount != 3 {
		t.Errorf("Unexpected first enrollment: %+v", list[0])
	}
	if list[1].ImageCount != 0 {
		t.Errorf("Expected no images on the repeat enrollment, got %d", list[1].ImageCount)
	}

	// Reset drops everything; a new store recreates the schema
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := s.ListEnrollments(ctx); err == nil {
		t.Error("Expected error listing after tables were dropped")
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
