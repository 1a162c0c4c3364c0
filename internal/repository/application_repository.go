package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/applyquest/applyquest-api/internal/models"
)

// ApplicationRepository manages persistence for applications and their
// status history.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, user_id, company_name, position_title, location, job_url, salary_range, tech_stack,
        status, visa_sponsorship, german_requirement, relocation_support, job_board_source, priority_stars, notes,
        applied_date, created_at, updated_at, referral_contact_id`

// List returns the user's applications matching the provided filters.
func (r *ApplicationRepository) List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error) {
	base := "FROM applications"
	args := []interface{}{userID}
	conditions := []string{"user_id = $1"}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(company_name) LIKE $%d OR LOWER(position_title) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"company_name":   "company_name",
		"applied_date":   "applied_date",
		"priority_stars": "priority_stars",
		"created_at":     "created_at",
	}
	if sortBy == "" {
		sortBy = "applied_date"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "applied_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", applicationColumns, base, column, order, size, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return apps, total, nil
}

// ListAll fetches every application of the user without pagination. Analytics
// folds run over the full set.
func (r *ApplicationRepository) ListAll(ctx context.Context, userID string) ([]models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM applications WHERE user_id = $1 ORDER BY applied_date ASC, created_at ASC", applicationColumns)
	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, userID); err != nil {
		return nil, fmt.Errorf("list all applications: %w", err)
	}
	return apps, nil
}

// FindByID fetches one application scoped to its owner.
func (r *ApplicationRepository) FindByID(ctx context.Context, userID, id string) (*models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM applications WHERE id = $1 AND user_id = $2", applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, userID); err != nil {
		return nil, err
	}
	return &app, nil
}

// Create inserts a new application together with its creation history row.
// The initial record carries a NULL old status.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.AppliedDate.IsZero() {
		app.AppliedDate = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create application: %w", err)
	}
	defer tx.Rollback()

	const insertApp = `INSERT INTO applications (id, user_id, company_name, position_title, location, job_url, salary_range, tech_stack,
        status, visa_sponsorship, german_requirement, relocation_support, job_board_source, priority_stars, notes,
        applied_date, created_at, updated_at, referral_contact_id)
        VALUES (:id, :user_id, :company_name, :position_title, :location, :job_url, :salary_range, :tech_stack,
        :status, :visa_sponsorship, :german_requirement, :relocation_support, :job_board_source, :priority_stars, :notes,
        :applied_date, :created_at, :updated_at, :referral_contact_id)`
	if _, err := tx.NamedExecContext(ctx, insertApp, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	record := models.TransitionRecord{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		OldStatus:     nil,
		NewStatus:     app.Status,
		ChangedAt:     now,
	}
	const insertHistory = `INSERT INTO status_history (id, application_id, old_status, new_status, notes, changed_at)
        VALUES (:id, :application_id, :old_status, :new_status, :notes, :changed_at)`
	if _, err := tx.NamedExecContext(ctx, insertHistory, record); err != nil {
		return fmt.Errorf("create initial history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create application: %w", err)
	}
	return nil
}

// Update modifies the non-status fields of an application.
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET company_name = :company_name, position_title = :position_title, location = :location,
        job_url = :job_url, salary_range = :salary_range, tech_stack = :tech_stack, visa_sponsorship = :visa_sponsorship,
        german_requirement = :german_requirement, relocation_support = :relocation_support, job_board_source = :job_board_source,
        priority_stars = :priority_stars, notes = :notes, applied_date = :applied_date, referral_contact_id = :referral_contact_id,
        updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, app)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the application. History rows go with it via cascade.
func (r *ApplicationRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM applications WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Transition records a status change atomically: it locks the row, appends
// the history record, and updates the current status. The returned record is
// the appended history entry.
func (r *ApplicationRepository) Transition(ctx context.Context, userID, id string, newStatus models.Status, notes *string) (*models.TransitionRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var current models.Status
	const lockQuery = `SELECT status FROM applications WHERE id = $1 AND user_id = $2 FOR UPDATE`
	if err := tx.GetContext(ctx, &current, lockQuery, id, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	old := current
	record := models.TransitionRecord{
		ID:            uuid.NewString(),
		ApplicationID: id,
		OldStatus:     &old,
		NewStatus:     newStatus,
		Notes:         notes,
		ChangedAt:     now,
	}
	const insertHistory = `INSERT INTO status_history (id, application_id, old_status, new_status, notes, changed_at)
        VALUES (:id, :application_id, :old_status, :new_status, :notes, :changed_at)`
	if _, err := tx.NamedExecContext(ctx, insertHistory, record); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	const updateStatus = `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, updateStatus, newStatus, now, id); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &record, nil
}

// ListHistory returns the status history of one application ordered oldest
// first. The seq column breaks changed_at ties in insertion order.
func (r *ApplicationRepository) ListHistory(ctx context.Context, userID, applicationID string) ([]models.TransitionRecord, error) {
	const query = `SELECT h.id, h.application_id, h.old_status, h.new_status, h.notes, h.seq, h.changed_at
        FROM status_history h
        JOIN applications a ON a.id = h.application_id
        WHERE h.application_id = $1 AND a.user_id = $2
        ORDER BY h.changed_at ASC, h.seq ASC`
	var records []models.TransitionRecord
	if err := r.db.SelectContext(ctx, &records, query, applicationID, userID); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// ListAllHistory fetches history rows for every application of the user,
// ordered oldest first. Flow analytics fold over this set.
func (r *ApplicationRepository) ListAllHistory(ctx context.Context, userID string) ([]models.TransitionRecord, error) {
	const query = `SELECT h.id, h.application_id, h.old_status, h.new_status, h.notes, h.seq, h.changed_at
        FROM status_history h
        JOIN applications a ON a.id = h.application_id
        WHERE a.user_id = $1
        ORDER BY h.changed_at ASC, h.seq ASC`
	var records []models.TransitionRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list all history: %w", err)
	}
	return records, nil
}
