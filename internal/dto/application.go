package dto

// CreateApplicationRequest is the payload for submitting a new application.
// Status is not accepted: every application starts as Applied.
type CreateApplicationRequest struct {
	CompanyName       string  `json:"company_name" validate:"required"`
	PositionTitle     string  `json:"position_title" validate:"required"`
	Location          string  `json:"location" validate:"required"`
	JobURL            *string `json:"job_url,omitempty" validate:"omitempty,url"`
	SalaryRange       *string `json:"salary_range,omitempty"`
	TechStack         *string `json:"tech_stack,omitempty"`
	VisaSponsorship   bool    `json:"visa_sponsorship"`
	GermanRequirement string  `json:"german_requirement,omitempty" validate:"omitempty,oneof=None Basic Fluent"`
	RelocationSupport bool    `json:"relocation_support"`
	JobBoardSource    *string `json:"job_board_source,omitempty"`
	PriorityStars     int     `json:"priority_stars" validate:"min=0,max=5"`
	Notes             *string `json:"notes,omitempty"`
	AppliedDate       string  `json:"applied_date,omitempty"`
	ReferralContactID *string `json:"referral_contact_id,omitempty"`
}

// UpdateApplicationRequest edits non-status fields. Absent pointers leave the
// stored value untouched; status changes go through the transition endpoint.
type UpdateApplicationRequest struct {
	CompanyName       *string `json:"company_name,omitempty"`
	PositionTitle     *string `json:"position_title,omitempty"`
	Location          *string `json:"location,omitempty"`
	JobURL            *string `json:"job_url,omitempty" validate:"omitempty,url"`
	SalaryRange       *string `json:"salary_range,omitempty"`
	TechStack         *string `json:"tech_stack,omitempty"`
	VisaSponsorship   *bool   `json:"visa_sponsorship,omitempty"`
	GermanRequirement *string `json:"german_requirement,omitempty" validate:"omitempty,oneof=None Basic Fluent"`
	RelocationSupport *bool   `json:"relocation_support,omitempty"`
	JobBoardSource    *string `json:"job_board_source,omitempty"`
	PriorityStars     *int    `json:"priority_stars,omitempty" validate:"omitempty,min=0,max=5"`
	Notes             *string `json:"notes,omitempty"`
	AppliedDate       *string `json:"applied_date,omitempty"`
	ReferralContactID *string `json:"referral_contact_id,omitempty"`
}

// StatusUpdateRequest moves an application to a new pipeline status.
type StatusUpdateRequest struct {
	NewStatus string  `json:"new_status" validate:"required"`
	Notes     *string `json:"notes,omitempty"`
}
