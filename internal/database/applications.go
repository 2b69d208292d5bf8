package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rciconnect/internal/models"
)

const applicationColumns = `id, email, full_name, phone, license_number, status, sections, sections_requested,
        practice_name, practice_address, years_of_experience, expertise_areas, languages,
        insurance_provider, insurance_policy, declarations, signature, admin_notes, created_at, updated_at`

func (db *DB) CreateApplication(ctx context.Context, app *models.ConsultantApplication) error {
	now := time.Now()
	query := `INSERT INTO applications (id, email, full_name, phone, license_number, status, sections, sections_requested, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		app.ID,
		app.Email,
		app.FullName,
		app.Phone,
		app.LicenseNumber,
		app.Status,
		int(app.Sections),
		joinSections(app.SectionsRequested),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	app.CreatedAt = now
	app.UpdatedAt = now
	return nil
}

func (db *DB) GetApplication(ctx context.Context, id string) (*models.ConsultantApplication, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (db *DB) GetApplicationByEmailAndID(ctx context.Context, email, id string) (*models.ConsultantApplication, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ? AND email = ? COLLATE NOCASE`, id, email)
	return scanApplication(row)
}

func (db *DB) ListApplications(ctx context.Context, status string) ([]*models.ConsultantApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.ConsultantApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (db *DB) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) SetSectionsRequested(ctx context.Context, id string, sections []int) error {
	result, err := db.ExecContext(ctx,
		`UPDATE applications SET sections_requested = ?, updated_at = ? WHERE id = ?`,
		joinSections(sections), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set sections requested: %w", err)
	}
	return requireAffected(result)
}

// CompleteApplicationSections writes the sections 2-7 payload and the new
// completion mask in one statement.
func (db *DB) CompleteApplicationSections(ctx context.Context, app *models.ConsultantApplication) error {
	query := `UPDATE applications SET
                sections = ?,
                practice_name = ?,
                practice_address = ?,
                years_of_experience = ?,
                expertise_areas = ?,
                languages = ?,
                insurance_provider = ?,
                insurance_policy = ?,
                declarations = ?,
                signature = ?,
                updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		int(app.Sections),
		app.PracticeName,
		app.PracticeAddress,
		app.YearsOfExperience,
		app.ExpertiseAreas,
		app.Languages,
		app.InsuranceProvider,
		app.InsurancePolicy,
		app.Declarations,
		app.Signature,
		time.Now(),
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete sections: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) UpdateAdminNotes(ctx context.Context, id, notes string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE applications SET admin_notes = ?, updated_at = ? WHERE id = ?`, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update admin notes: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) AddApplicationDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO application_documents (application_id, kind, file_name, stored_name, uploaded_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ApplicationID, doc.Kind, doc.FileName, doc.StoredName, doc.UploadedBy, now)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id
	doc.CreatedAt = now
	return nil
}

func (db *DB) DeleteApplicationDocument(ctx context.Context, applicationID string, docID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM application_documents WHERE id = ? AND application_id = ?`, docID, applicationID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) ListApplicationDocuments(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, application_id, kind, file_name, stored_name, uploaded_by, created_at
         FROM application_documents WHERE application_id = ? ORDER BY created_at`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationDocument
	for rows.Next() {
		var d models.ApplicationDocument
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.Kind, &d.FileName, &d.StoredName, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (db *DB) GetApplicationDocumentByStoredName(ctx context.Context, storedName string) (*models.ApplicationDocument, error) {
	var d models.ApplicationDocument
	err := db.QueryRowContext(ctx,
		`SELECT id, application_id, kind, file_name, stored_name, uploaded_by, created_at
         FROM application_documents WHERE stored_name = ?`, storedName).
		Scan(&d.ID, &d.ApplicationID, &d.Kind, &d.FileName, &d.StoredName, &d.UploadedBy, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.ConsultantApplication, error) {
	var (
		app       models.ConsultantApplication
		sections  int
		requested string
		phone     sql.NullString
		practice  sql.NullString
		address   sql.NullString
		expertise sql.NullString
		languages sql.NullString
		insProv   sql.NullString
		insPol    sql.NullString
		signature sql.NullString
	)

	err := row.Scan(
		&app.ID, &app.Email, &app.FullName, &phone, &app.LicenseNumber, &app.Status,
		&sections, &requested,
		&practice, &address, &app.YearsOfExperience, &expertise, &languages,
		&insProv, &insPol, &app.Declarations, &signature, &app.AdminNotes,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	app.Sections = models.SectionSet(sections)
	app.SectionsRequested = splitSections(requested)
	app.Phone = phone.String
	app.PracticeName = practice.String
	app.PracticeAddress = address.String
	app.ExpertiseAreas = expertise.String
	app.Languages = languages.String
	app.InsuranceProvider = insProv.String
	app.InsurancePolicy = insPol.String
	app.Signature = signature.String
	return &app, nil
}

func joinSections(sections []int) string {
	if len(sections) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, strconv.Itoa(s))
	}
	return strings.Join(parts, ",")
}

func splitSections(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
