package election

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errEmptyExternalID = errors.New("external id is empty")

// ResolveVoter maps an identity-provider user id to the internal voter id,
// creating the mapping on first use. The insert is ON CONFLICT DO NOTHING
// keyed on the external id, so concurrent first-time resolutions and the
// eager webhook path all converge on a single internal id. A constraint
// rejection is benign; the read-back is retried once before giving up.
func (s *Service) ResolveVoter(ctx context.Context, externalID string) (uuid.UUID, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return uuid.Nil, &IdentityResolutionError{ExternalID: externalID, Err: errEmptyExternalID}
	}

	var existing VoterIdentity
	err := s.db.WithContext(ctx).First(&existing, "external_id = ?", externalID).Error
	if err == nil {
		return existing.InternalID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, &IdentityResolutionError{ExternalID: externalID, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		mapping := VoterIdentity{
			ExternalID: externalID,
			InternalID: uuid.New(),
		}
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoNothing: true,
			}).
			Create(&mapping).Error
		if err != nil {
			lastErr = err
			continue
		}

		// Read back: on conflict our freshly generated id was discarded and
		// the winner's row is the one that counts.
		var stored VoterIdentity
		err = s.db.WithContext(ctx).First(&stored, "external_id = ?", externalID).Error
		if err == nil {
			return stored.InternalID, nil
		}
		lastErr = err
	}

	return uuid.Nil, &IdentityResolutionError{ExternalID: externalID, Err: lastErr}
}
