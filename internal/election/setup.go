package election

import (
	"log"

	"github.com/CampusElect/CE-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "election"); err != nil {
		log.Fatal("Failed to ensure schema election: ", err)
	}

	if err := db.DB.AutoMigrate(
		&Position{},
		&Candidate{},
		&Vote{},
		&VoterIdentity{},
	); err != nil {
		log.Fatal("Failed to auto-migrate election tables: ", err)
	}

	// Tally queries group votes by candidate within a position.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_votes_position_candidate
		ON election.votes (position_id, candidate_id);
	`).Error; err != nil {
		log.Fatal("Failed to create idx_votes_position_candidate: ", err)
	}

	log.Println("Election module initialized")
}
