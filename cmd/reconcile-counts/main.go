package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Recomputes candidates.vote_count from vote rows. The counter is maintained
// atomically inside the vote transaction, so drift should never happen; this
// exists so that if it ever does, the derived tally wins.
func main() {
	godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}

	result := db.Exec(`
		UPDATE election.candidates c
		SET vote_count = coalesce(v.n, 0)
		FROM election.candidates c2
		LEFT JOIN (
			SELECT candidate_id, count(*) AS n
			FROM election.votes
			GROUP BY candidate_id
		) v ON v.candidate_id = c2.id
		WHERE c.id = c2.id
		  AND c.vote_count IS DISTINCT FROM coalesce(v.n, 0)
	`)
	if result.Error != nil {
		log.Fatalf("Error reconciling counts: %v", result.Error)
	}

	fmt.Printf("✓ Reconciled vote_count for %d candidate(s)\n", result.RowsAffected)
}
