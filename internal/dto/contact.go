package dto

// CreateContactRequest is the payload for adding a networking contact.
type CreateContactRequest struct {
	Name               string  `json:"name" validate:"required"`
	Email              *string `json:"email,omitempty" validate:"omitempty,email"`
	Company            *string `json:"company,omitempty"`
	RelationshipType   *string `json:"relationship_type,omitempty"`
	ConnectionStrength int     `json:"connection_strength" validate:"min=0,max=5"`
	LastContactDate    *string `json:"last_contact_date,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	ApplicationID      *string `json:"application_id,omitempty"`
}

// UpdateContactRequest edits an existing contact.
type UpdateContactRequest struct {
	Name               *string `json:"name,omitempty"`
	Email              *string `json:"email,omitempty" validate:"omitempty,email"`
	Company            *string `json:"company,omitempty"`
	RelationshipType   *string `json:"relationship_type,omitempty"`
	ConnectionStrength *int    `json:"connection_strength,omitempty" validate:"omitempty,min=0,max=5"`
	LastContactDate    *string `json:"last_contact_date,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	ApplicationID      *string `json:"application_id,omitempty"`
}
