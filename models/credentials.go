package models

import "time"

// PlatformCredentials is one saved account for an ATS. Workday accounts are
// per-company, so the key is (platform, company); other platforms use an
// empty company.
type PlatformCredentials struct {
	Platform   string    `json:"platform"`
	Company    string    `json:"company"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	VerifiedAt time.Time `json:"verified_at"`
}
