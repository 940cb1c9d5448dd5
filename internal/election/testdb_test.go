package election_test

import (
	"context"
	"testing"

	"github.com/CampusElect/CE-Backend/internal/election"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB spins up an in-memory sqlite database shaped like production:
// an attached database makes the schema-qualified table names resolve, and a
// single connection serializes transactions the way the Postgres unique
// index does for conflicting writers.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(`ATTACH DATABASE ':memory:' AS election`).Error; err != nil {
		t.Fatalf("attach schema db: %v", err)
	}

	// gorm's sqlite migrator cannot create tables under an attached database,
	// so the production schema is mirrored here with explicit DDL. Column
	// names and the composite unique index must stay in sync with models.go.
	ddl := []string{
		`CREATE TABLE election.positions (
			id text PRIMARY KEY,
			title text NOT NULL,
			description text,
			active numeric NOT NULL DEFAULT true,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE TABLE election.candidates (
			id text PRIMARY KEY,
			name text NOT NULL,
			position_id text NOT NULL,
			image text,
			department text,
			year text,
			manifesto text,
			achievements text,
			vote_count integer NOT NULL DEFAULT 0,
			created_at datetime,
			updated_at datetime
		)`,
		`CREATE INDEX election.idx_candidates_position_id ON candidates (position_id)`,
		`CREATE TABLE election.votes (
			id text PRIMARY KEY,
			position_id text NOT NULL,
			candidate_id text NOT NULL,
			voter_id text NOT NULL,
			created_at datetime
		)`,
		`CREATE UNIQUE INDEX election.idx_votes_voter_position ON votes (voter_id, position_id)`,
		`CREATE INDEX election.idx_votes_position_candidate ON votes (position_id, candidate_id)`,
		`CREATE TABLE election.voter_identities (
			external_id text PRIMARY KEY,
			internal_id text NOT NULL UNIQUE,
			created_at datetime
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create test schema: %v", err)
		}
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestService(t *testing.T) *election.Service {
	t.Helper()
	return election.NewService(openTestDB(t))
}

func mustCreatePosition(t *testing.T, svc *election.Service, title string) election.Position {
	t.Helper()
	position, err := svc.CreatePosition(context.Background(), title, "")
	if err != nil {
		t.Fatalf("create position %q: %v", title, err)
	}
	return position
}

func mustCreateCandidate(t *testing.T, svc *election.Service, name string, positionID uuid.UUID) election.Candidate {
	t.Helper()
	candidate, err := svc.CreateCandidate(context.Background(), election.CandidateInput{
		Name:       name,
		PositionID: positionID.String(),
	})
	if err != nil {
		t.Fatalf("create candidate %q: %v", name, err)
	}
	return candidate
}

func strPtr(s string) *string { return &s }

func mustResolve(t *testing.T, svc *election.Service, externalID string) uuid.UUID {
	t.Helper()
	id, err := svc.ResolveVoter(context.Background(), externalID)
	if err != nil {
		t.Fatalf("resolve %q: %v", externalID, err)
	}
	return id
}
