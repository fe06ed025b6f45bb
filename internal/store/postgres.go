// Package store provides persistence backends for the event assistant.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// pqUniqueViolation is the PostgreSQL error code for unique_violation.
const pqUniqueViolation = "23505"

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN and
// migrates the schema on open.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres store ready")
	return &PostgresStore{db: db}, nil
}

// isPostgresUniqueViolation reports whether err is a unique-constraint failure.
func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// CreateParticipant inserts a participant, mapping unique-index violations on
// cpf to ErrDuplicateCPF.
func (s *PostgresStore) CreateParticipant(p models.Participant) (models.Participant, error) {
	err := s.db.QueryRow(
		`INSERT INTO participants (full_name, email, cpf, phone, city, state, profile)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		p.FullName, p.Email, p.CPF, nilIfEmpty(p.Phone), nilIfEmpty(p.City), nilIfEmpty(p.State), nilIfEmpty(p.Profile),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			slog.Warn("PostgresStore CreateParticipant duplicate CPF", "cpf", p.CPF)
			return models.Participant{}, ErrDuplicateCPF
		}
		slog.Error("PostgresStore CreateParticipant failed", "error", err)
		return models.Participant{}, fmt.Errorf("failed to insert participant: %w", err)
	}
	slog.Debug("PostgresStore CreateParticipant succeeded", "id", p.ID, "cpf", p.CPF)
	return p, nil
}

// GetParticipantByCPF returns the participant with the given CPF, or nil.
func (s *PostgresStore) GetParticipantByCPF(cpf string) (*models.Participant, error) {
	row := s.db.QueryRow(
		`SELECT id, full_name, email, cpf, phone, city, state, profile, created_at FROM participants WHERE cpf = $1`,
		cpf,
	)
	p, err := scanParticipantRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetParticipantByCPF failed", "error", err, "cpf", cpf)
		return nil, fmt.Errorf("failed to query participant by cpf: %w", err)
	}
	return p, nil
}

// ListParticipants returns all participants ordered by insertion.
func (s *PostgresStore) ListParticipants() ([]models.Participant, error) {
	rows, err := s.db.Query(
		`SELECT id, full_name, email, cpf, phone, city, state, profile, created_at FROM participants ORDER BY id`,
	)
	if err != nil {
		slog.Error("PostgresStore ListParticipants query failed", "error", err)
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// GetSession returns the serialized session JSON for userID, or "".
func (s *PostgresStore) GetSession(userID string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow(`SELECT state_json FROM sessions WHERE user_id = $1`, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "userID", userID)
		return "", fmt.Errorf("failed to query session: %w", err)
	}
	return stateJSON, nil
}

// SaveSession upserts the serialized session JSON for userID.
func (s *PostgresStore) SaveSession(userID, stateJSON string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (user_id, state_json, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET state_json = EXCLUDED.state_json, updated_at = NOW()`,
		userID, stateJSON,
	)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session for userID.
func (s *PostgresStore) DeleteSession(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
