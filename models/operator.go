package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Operator is a human allowed to read the monitor API.
type Operator struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// OperatorModel wraps operator table access.
type OperatorModel struct {
	db *sql.DB
}

func NewOperatorModel(db *sql.DB) *OperatorModel {
	return &OperatorModel{db: db}
}

func (m *OperatorModel) Create(email, passwordHash string) (*Operator, error) {
	var op Operator
	err := m.db.QueryRow(
		`INSERT INTO operators (email, password_hash) VALUES ($1, $2)
		 RETURNING id, email, password_hash, created_at`,
		email, passwordHash,
	).Scan(&op.ID, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating operator: %w", err)
	}
	return &op, nil
}

func (m *OperatorModel) GetByEmail(email string) (*Operator, error) {
	var op Operator
	err := m.db.QueryRow(
		`SELECT id, email, password_hash, created_at FROM operators WHERE email = $1`,
		email,
	).Scan(&op.ID, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading operator: %w", err)
	}
	return &op, nil
}
