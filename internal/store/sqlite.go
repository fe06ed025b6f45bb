// Package store provides persistence backends for the event assistant.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the permissions for created database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN (a file path).
// The parent directory is created when missing and the schema is migrated on open.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite store ready", "dsn", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

// isSQLiteUniqueViolation reports whether err is a unique-constraint failure.
func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateParticipant inserts a participant, mapping unique-index violations on
// cpf to ErrDuplicateCPF.
func (s *SQLiteStore) CreateParticipant(p models.Participant) (models.Participant, error) {
	res, err := s.db.Exec(
		`INSERT INTO participants (full_name, email, cpf, phone, city, state, profile) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.FullName, p.Email, p.CPF, nilIfEmpty(p.Phone), nilIfEmpty(p.City), nilIfEmpty(p.State), nilIfEmpty(p.Profile),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			slog.Warn("SQLiteStore CreateParticipant duplicate CPF", "cpf", p.CPF)
			return models.Participant{}, ErrDuplicateCPF
		}
		slog.Error("SQLiteStore CreateParticipant failed", "error", err)
		return models.Participant{}, fmt.Errorf("failed to insert participant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		slog.Error("SQLiteStore CreateParticipant last insert id failed", "error", err)
		return models.Participant{}, fmt.Errorf("failed to read participant id: %w", err)
	}
	p.ID = id
	row := s.db.QueryRow(`SELECT created_at FROM participants WHERE id = ?`, id)
	if err := row.Scan(&p.CreatedAt); err != nil {
		slog.Error("SQLiteStore CreateParticipant created_at scan failed", "error", err, "id", id)
		return models.Participant{}, fmt.Errorf("failed to read participant row: %w", err)
	}
	slog.Debug("SQLiteStore CreateParticipant succeeded", "id", p.ID, "cpf", p.CPF)
	return p, nil
}

// GetParticipantByCPF returns the participant with the given CPF, or nil.
func (s *SQLiteStore) GetParticipantByCPF(cpf string) (*models.Participant, error) {
	row := s.db.QueryRow(
		`SELECT id, full_name, email, cpf, phone, city, state, profile, created_at FROM participants WHERE cpf = ?`,
		cpf,
	)
	p, err := scanParticipantRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetParticipantByCPF failed", "error", err, "cpf", cpf)
		return nil, fmt.Errorf("failed to query participant by cpf: %w", err)
	}
	return p, nil
}

// ListParticipants returns all participants ordered by insertion.
func (s *SQLiteStore) ListParticipants() ([]models.Participant, error) {
	rows, err := s.db.Query(
		`SELECT id, full_name, email, cpf, phone, city, state, profile, created_at FROM participants ORDER BY id`,
	)
	if err != nil {
		slog.Error("SQLiteStore ListParticipants query failed", "error", err)
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// GetSession returns the serialized session JSON for userID, or "".
func (s *SQLiteStore) GetSession(userID string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow(`SELECT state_json FROM sessions WHERE user_id = ?`, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "userID", userID)
		return "", fmt.Errorf("failed to query session: %w", err)
	}
	return stateJSON, nil
}

// SaveSession upserts the serialized session JSON for userID.
func (s *SQLiteStore) SaveSession(userID, stateJSON string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (user_id, state_json, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET state_json = excluded.state_json, updated_at = CURRENT_TIMESTAMP`,
		userID, stateJSON,
	)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session for userID.
func (s *SQLiteStore) DeleteSession(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
