package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/CampusElect/CE-Backend/internal/auth"
	"github.com/CampusElect/CE-Backend/internal/db"
	"github.com/CampusElect/CE-Backend/internal/election"
	"gorm.io/gorm/clause"
)

// IdentityEventWebhook receives "user.created" events from the identity
// provider and eagerly creates the voter identity mapping plus a voter-role
// account record, so a first-time voter does not pay the mapping upsert at
// ballot time. Both writes are idempotent, so a mapping already created
// lazily or a redelivered event is a no-op here.
func IdentityEventWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	sig := r.Header.Get("Webhook-Signature")
	eventID := r.Header.Get("Webhook-Id")
	if eventID == "" {
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	secret := os.Getenv("IDENTITY_WEBHOOK_SECRET")
	if secret == "" {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verifySignature(sig, eventID, raw, secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if event.Type == "user.created" {
		if strings.TrimSpace(event.Data.ID) == "" {
			http.Error(w, "missing user id", http.StatusBadRequest)
			return
		}

		svc := election.NewService(db.DB)
		voterID, err := svc.ResolveVoter(r.Context(), event.Data.ID)
		if err != nil {
			log.Printf("[webhooks] eager mapping for %s failed: %v", event.Data.ID, err)
			http.Error(w, "mapping failed", http.StatusInternalServerError)
			return
		}

		// The account record carries the voter role for users who never hit
		// the register endpoint. Keyed on the provider's user id; an existing
		// account (registered or previously delivered) is left untouched.
		username := strings.TrimSpace(event.Data.Username)
		if username == "" {
			username = event.Data.ID
		}
		account := auth.User{
			UserID:   event.Data.ID,
			Username: username,
			Role:     "voter",
		}
		if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
			log.Printf("[webhooks] voter account for %s failed: %v", event.Data.ID, err)
			http.Error(w, "account creation failed", http.StatusInternalServerError)
			return
		}
		log.Printf("[webhooks] user.created %s -> voter %s", event.Data.ID, voterID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"ok":true}`))
}

func verifySignature(sig, eventID string, raw []byte, secret string) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	mac.Write([]byte(eventID))
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
