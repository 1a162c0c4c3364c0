package models

import "time"

// Status is the pipeline stage of a job application. The literals are part of
// the wire format and must match existing stored data exactly.
type Status string

const (
	StatusApplied         Status = "Applied"
	StatusReplied         Status = "Replied"
	StatusPhoneScreen     Status = "Phone Screen"
	StatusTechnicalRound1 Status = "Technical Round 1"
	StatusTechnicalRound2 Status = "Technical Round 2"
	StatusFinalRound      Status = "Final Round"
	StatusOffer           Status = "Offer"
	StatusRejected        Status = "Rejected"
	StatusGhosted         Status = "Ghosted"
	// StatusWithdrawn is only recognised when the pipeline enables it.
	StatusWithdrawn Status = "Withdrawn"
)

// PipelineStatuses lists the base enum in pipeline order.
var PipelineStatuses = []Status{
	StatusApplied,
	StatusReplied,
	StatusPhoneScreen,
	StatusTechnicalRound1,
	StatusTechnicalRound2,
	StatusFinalRound,
	StatusOffer,
	StatusRejected,
	StatusGhosted,
}

// InterviewStatuses covers every interview-round stage.
var InterviewStatuses = []Status{
	StatusPhoneScreen,
	StatusTechnicalRound1,
	StatusTechnicalRound2,
	StatusFinalRound,
}

// Terminal reports whether no further transition is expected from the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusOffer, StatusRejected, StatusGhosted, StatusWithdrawn:
		return true
	}
	return false
}

// StatusPriority returns the fixed presentation ordering used by flow output.
// Rejected and Ghosted share the lowest priority and render last; unrecognised
// statuses sort after everything.
func StatusPriority(s Status) int {
	switch s {
	case StatusApplied:
		return 0
	case StatusReplied:
		return 1
	case StatusPhoneScreen:
		return 2
	case StatusTechnicalRound1:
		return 3
	case StatusTechnicalRound2:
		return 4
	case StatusFinalRound:
		return 5
	case StatusOffer:
		return 6
	case StatusRejected, StatusGhosted, StatusWithdrawn:
		return 7
	}
	return 99
}

// GermanLevel captures the language requirement of a posting.
type GermanLevel string

const (
	GermanNone   GermanLevel = "None"
	GermanBasic  GermanLevel = "Basic"
	GermanFluent GermanLevel = "Fluent"
)

// Application represents one job application owned by a user.
type Application struct {
	ID                string      `db:"id" json:"id"`
	UserID            string      `db:"user_id" json:"user_id"`
	CompanyName       string      `db:"company_name" json:"company_name"`
	PositionTitle     string      `db:"position_title" json:"position_title"`
	Location          string      `db:"location" json:"location"`
	JobURL            *string     `db:"job_url" json:"job_url,omitempty"`
	SalaryRange       *string     `db:"salary_range" json:"salary_range,omitempty"`
	TechStack         *string     `db:"tech_stack" json:"tech_stack,omitempty"`
	Status            Status      `db:"status" json:"status"`
	VisaSponsorship   bool        `db:"visa_sponsorship" json:"visa_sponsorship"`
	GermanRequirement GermanLevel `db:"german_requirement" json:"german_requirement"`
	RelocationSupport bool        `db:"relocation_support" json:"relocation_support"`
	JobBoardSource    *string     `db:"job_board_source" json:"job_board_source,omitempty"`
	PriorityStars     int         `db:"priority_stars" json:"priority_stars"`
	Notes             *string     `db:"notes" json:"notes,omitempty"`
	AppliedDate       time.Time   `db:"applied_date" json:"applied_date"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
	ReferralContactID *string     `db:"referral_contact_id" json:"referral_contact_id,omitempty"`

	History []TransitionRecord `db:"-" json:"history,omitempty"`
}

// TransitionRecord is one status change event. Records are append-only and
// immutable; a nil OldStatus marks the implicit creation transition.
type TransitionRecord struct {
	ID            string  `db:"id" json:"id"`
	ApplicationID string  `db:"application_id" json:"application_id"`
	OldStatus     *Status `db:"old_status" json:"old_status"`
	NewStatus     Status  `db:"new_status" json:"new_status"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
	// Seq is assigned by the database sequence and orders records that share
	// a changed_at timestamp, such as backfilled date-granularity entries.
	Seq       int64     `db:"seq" json:"-"`
	ChangedAt time.Time `db:"changed_at" json:"changed_at"`
}

// ApplicationFilter captures list filtering criteria.
type ApplicationFilter struct {
	Status    *Status
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
