package election

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeTitle canonicalizes a position title for uniqueness comparison:
// trimmed, Unicode-composed, case-folded. The stored title keeps whatever
// casing the administrator typed. Casers are stateful, so one is built per
// call rather than shared.
func normalizeTitle(title string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(title)))
}
