package services

import (
	"database/sql"
	"fmt"

	"applypilot/models"
)

// CredentialsStore caches verified ATS accounts keyed by (platform, company).
type CredentialsStore interface {
	// Get returns nil without an error when no account is saved.
	Get(platform, company string) (*models.PlatformCredentials, error)
	Save(creds models.PlatformCredentials) error
}

// PostgresCredentialsStore backs the cache with the platform_credentials
// table.
type PostgresCredentialsStore struct {
	db *sql.DB
}

func NewPostgresCredentialsStore(db *sql.DB) *PostgresCredentialsStore {
	return &PostgresCredentialsStore{db: db}
}

func (s *PostgresCredentialsStore) Get(platform, company string) (*models.PlatformCredentials, error) {
	var creds models.PlatformCredentials
	err := s.db.QueryRow(
		`SELECT platform, company, email, password, verified_at
		 FROM platform_credentials WHERE platform = $1 AND company = $2`,
		platform, company,
	).Scan(&creds.Platform, &creds.Company, &creds.Email, &creds.Password, &creds.VerifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return &creds, nil
}

func (s *PostgresCredentialsStore) Save(creds models.PlatformCredentials) error {
	_, err := s.db.Exec(
		`INSERT INTO platform_credentials (platform, company, email, password, verified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (platform, company)
		 DO UPDATE SET email = EXCLUDED.email, password = EXCLUDED.password, verified_at = EXCLUDED.verified_at`,
		creds.Platform, creds.Company, creds.Email, creds.Password, creds.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}
