package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ClinicalService is an entry of the hospital's clinical service catalog.
type ClinicalService struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	NormalizedName string    `db:"normalized_name" json:"-"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// NormalizeServiceName returns the catalog business key for a free-text service name:
// NFC composed, trimmed and Unicode case folded. Blank input yields "".
func NormalizeServiceName(name string) string {
	trimmed := strings.TrimSpace(norm.NFC.String(name))
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(trimmed)
}
