package models

import "time"

// NetworkContact is a professional contact, optionally linked to one
// application via a weak reference.
type NetworkContact struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	Name               string     `db:"name" json:"name"`
	Email              *string    `db:"email" json:"email,omitempty"`
	Company            *string    `db:"company" json:"company,omitempty"`
	RelationshipType   *string    `db:"relationship_type" json:"relationship_type,omitempty"`
	ConnectionStrength int        `db:"connection_strength" json:"connection_strength"`
	LastContactDate    *time.Time `db:"last_contact_date" json:"last_contact_date,omitempty"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	ApplicationID      *string    `db:"application_id" json:"application_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// ContactFilter captures list filtering criteria for contacts.
type ContactFilter struct {
	Search        string
	ApplicationID string
	Page          int
	PageSize      int
}
