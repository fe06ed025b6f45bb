package store

import (
	"database/sql"
	"fmt"

	"github.com/BioSummitBR/eventbot/internal/models"
)

// nilIfEmpty returns nil for empty strings so optional fields land as NULL.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanParticipantRow scans a participant from a single sql.Row.
func scanParticipantRow(row *sql.Row) (*models.Participant, error) {
	var p models.Participant
	var phone, city, state, profile sql.NullString
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.CPF, &phone, &city, &state, &profile, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Phone = phone.String
	p.City = city.String
	p.State = state.String
	p.Profile = profile.String
	return &p, nil
}

// collectParticipants drains rows into a participant slice.
func collectParticipants(rows *sql.Rows) ([]models.Participant, error) {
	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var phone, city, state, profile sql.NullString
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.CPF, &phone, &city, &state, &profile, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.Phone = phone.String
		p.City = city.String
		p.State = state.String
		p.Profile = profile.String
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant rows: %w", err)
	}
	return participants, nil
}
