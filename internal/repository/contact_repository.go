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

// ContactRepository manages persistence for networking contacts.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs a ContactRepository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, user_id, name, email, company, relationship_type, connection_strength,
        last_contact_date, notes, application_id, created_at, updated_at`

// List returns the user's contacts matching the filter.
func (r *ContactRepository) List(ctx context.Context, userID string, filter models.ContactFilter) ([]models.NetworkContact, int, error) {
	base := "FROM network_contacts"
	args := []interface{}{userID}
	conditions := []string{"user_id = $1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(company, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.ApplicationID != "" {
		conditions = append(conditions, fmt.Sprintf("application_id = $%d", len(args)+1))
		args = append(args, filter.ApplicationID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", contactColumns, base, size, offset)

	var contacts []models.NetworkContact
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}
	return contacts, total, nil
}

// FindByID fetches one contact scoped to its owner.
func (r *ContactRepository) FindByID(ctx context.Context, userID, id string) (*models.NetworkContact, error) {
	query := fmt.Sprintf("SELECT %s FROM network_contacts WHERE id = $1 AND user_id = $2", contactColumns)
	var contact models.NetworkContact
	if err := r.db.GetContext(ctx, &contact, query, id, userID); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Create inserts a new contact.
func (r *ContactRepository) Create(ctx context.Context, contact *models.NetworkContact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	const query = `INSERT INTO network_contacts (id, user_id, name, email, company, relationship_type, connection_strength,
        last_contact_date, notes, application_id, created_at, updated_at)
        VALUES (:id, :user_id, :name, :email, :company, :relationship_type, :connection_strength,
        :last_contact_date, :notes, :application_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// Update modifies an existing contact.
func (r *ContactRepository) Update(ctx context.Context, contact *models.NetworkContact) error {
	contact.UpdatedAt = time.Now().UTC()
	const query = `UPDATE network_contacts SET name = :name, email = :email, company = :company,
        relationship_type = :relationship_type, connection_strength = :connection_strength,
        last_contact_date = :last_contact_date, notes = :notes, application_id = :application_id,
        updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, contact)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a contact. Applications referencing it keep a dangling
// referral_contact_id by design of the weak link, so the reference is cleared
// explicitly.
func (r *ContactRepository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete contact: %w", err)
	}
	defer tx.Rollback()

	const clearRefs = `UPDATE applications SET referral_contact_id = NULL WHERE referral_contact_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, clearRefs, id, userID); err != nil {
		return fmt.Errorf("clear contact references: %w", err)
	}

	const query = `DELETE FROM network_contacts WHERE id = $1 AND user_id = $2`
	res, err := tx.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete contact: %w", err)
	}
	return nil
}
