package database

import (
	"context"
	"fmt"

	"rciconnect/internal/models"
)

func (db *DB) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, author, quote, rating, sort_order, is_active FROM testimonials
         WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	defer rows.Close()

	var out []models.Testimonial
	for rows.Next() {
		var t models.Testimonial
		if err := rows.Scan(&t.ID, &t.Author, &t.Quote, &t.Rating, &t.SortOrder, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan testimonial: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) ListFAQs(ctx context.Context, homeOnly bool) ([]models.FAQ, error) {
	query := `SELECT id, question, answer, on_home, sort_order FROM faqs`
	if homeOnly {
		query += ` WHERE on_home = 1`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	var out []models.FAQ
	for rows.Next() {
		var f models.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.OnHome, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (db *DB) ListServices(ctx context.Context) ([]models.ConsultationService, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, duration_minutes, price, sort_order, is_active FROM services
         WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var out []models.ConsultationService
	for rows.Next() {
		var s models.ConsultationService
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price, &s.SortOrder, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SeedContent loads the content tables from the yaml fixtures shipped with
// the deployment. Existing rows are left alone.
type ContentSeed struct {
	Testimonials []models.Testimonial         `yaml:"testimonials"`
	FAQs         []models.FAQ                 `yaml:"faqs"`
	Services     []models.ConsultationService `yaml:"services"`
}

func (db *DB) SeedContent(ctx context.Context, seed ContentSeed) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM testimonials`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count testimonials: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, t := range seed.Testimonials {
		_, err := db.ExecContext(ctx,
			`INSERT INTO testimonials (author, quote, rating, sort_order, is_active) VALUES (?, ?, ?, ?, ?)`,
			t.Author, t.Quote, t.Rating, t.SortOrder, t.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed testimonial: %w", err)
		}
	}
	for _, f := range seed.FAQs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO faqs (question, answer, on_home, sort_order) VALUES (?, ?, ?, ?)`,
			f.Question, f.Answer, f.OnHome, f.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to seed faq: %w", err)
		}
	}
	for _, s := range seed.Services {
		_, err := db.ExecContext(ctx,
			`INSERT INTO services (name, description, duration_minutes, price, sort_order, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
			s.Name, s.Description, s.DurationMinutes, s.Price, s.SortOrder, s.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed service: %w", err)
		}
	}
	return nil
}
