// Package store provides persistence backends for the event assistant.
//
// It persists confirmed participants (with a uniqueness invariant on CPF) and
// serialized conversation sessions. SQLite, PostgreSQL, and in-memory
// implementations are provided behind one interface.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/BioSummitBR/eventbot/internal/models"
)

// Error variables for store failure classification.
var (
	// ErrDuplicateCPF reports a violation of the participants.cpf unique
	// index, either pre-empted or raised by the database.
	ErrDuplicateCPF = errors.New("participant with this CPF already registered")
	// ErrParticipantIDMissing reports a participant persisted without an
	// assigned identifier. This is a non-recoverable invariant violation.
	ErrParticipantIDMissing = errors.New("persisted participant has no assigned id")
)

// Store is the persistence boundary shared by the registration flow and the
// session manager.
type Store interface {
	// CreateParticipant persists a new participant and returns it with the
	// store-assigned id. Fails with ErrDuplicateCPF when the CPF is taken.
	CreateParticipant(p models.Participant) (models.Participant, error)
	// GetParticipantByCPF returns the participant with the given CPF, or nil.
	GetParticipantByCPF(cpf string) (*models.Participant, error)
	// ListParticipants returns all participants in insertion order.
	ListParticipants() ([]models.Participant, error)

	// GetSession returns the serialized session for userID, or "" when absent.
	GetSession(userID string) (string, error)
	// SaveSession upserts the serialized session for userID.
	SaveSession(userID, stateJSON string) error
	// DeleteSession removes the session for userID, if any.
	DeleteSession(userID string) error

	// Close releases the underlying resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for everything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a non-durable Store for tests and ephemeral deployments.
type InMemoryStore struct {
	mu           sync.Mutex
	participants []models.Participant
	sessions     map[string]string
	nextID       int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]string), nextID: 1}
}

// CreateParticipant persists a participant, enforcing CPF uniqueness.
func (s *InMemoryStore) CreateParticipant(p models.Participant) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.participants {
		if existing.CPF == p.CPF {
			return models.Participant{}, ErrDuplicateCPF
		}
	}
	p.ID = s.nextID
	s.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.participants = append(s.participants, p)
	return p, nil
}

// GetParticipantByCPF returns the matching participant or nil.
func (s *InMemoryStore) GetParticipantByCPF(cpf string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.CPF == cpf {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// ListParticipants returns a copy of all stored participants.
func (s *InMemoryStore) ListParticipants() ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Participant, len(s.participants))
	copy(out, s.participants)
	return out, nil
}

// GetSession returns the serialized session or "".
func (s *InMemoryStore) GetSession(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID], nil
}

// SaveSession upserts the serialized session.
func (s *InMemoryStore) SaveSession(userID, stateJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = stateJSON
	return nil
}

// DeleteSession removes the session, if present.
func (s *InMemoryStore) DeleteSession(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
