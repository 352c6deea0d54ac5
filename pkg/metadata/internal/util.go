package internal

import (
	"strings"

	"github.com/marmos91/filesmanager/pkg/metadata"
)

// NormalizeParentID maps an empty parent id to the root sentinel so that
// records created with and without an explicit "0" land in the same listing.
//
// Examples:
//   - NormalizeParentID("") → "0"
//   - NormalizeParentID("0") → "0"
//   - NormalizeParentID("4f1c...") → "4f1c..."
func NormalizeParentID(parentID string) string {
	if parentID == "" {
		return metadata.RootParentID
	}
	return parentID
}

// NormalizeEmail lowercases and trims an email for uniqueness checks.
// The user record keeps the email as it was registered.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
