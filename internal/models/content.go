package models

import "time"

// Content served by the /features endpoints. Rows are seeded from yaml at
// startup and edited out of band.

type Testimonial struct {
	ID        int64  `json:"id" yaml:"id"`
	Author    string `json:"author" yaml:"author"`
	Quote     string `json:"quote" yaml:"quote"`
	Rating    int    `json:"rating" yaml:"rating"`
	SortOrder int64  `json:"sort_order" yaml:"sort_order"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
}

type FAQ struct {
	ID        int64  `json:"id" yaml:"id"`
	Question  string `json:"question" yaml:"question"`
	Answer    string `json:"answer" yaml:"answer"`
	OnHome    bool   `json:"on_home" yaml:"on_home"`
	SortOrder int64  `json:"sort_order" yaml:"sort_order"`
}

type ConsultationService struct {
	ID              int64   `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description" yaml:"description"`
	DurationMinutes int     `json:"duration_minutes" yaml:"duration_minutes"`
	Price           float64 `json:"price" yaml:"price"`
	SortOrder       int64   `json:"sort_order" yaml:"sort_order"`
	IsActive        bool    `json:"is_active" yaml:"is_active"`
}

type NewsletterSubscriber struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Status         string    `json:"status"` // subscribed, unsubscribed
	SubscribedAt   time.Time `json:"subscribed_at"`
	UnsubscribedAt time.Time `json:"unsubscribed_at,omitzero"`
}

// IntakeSummary is a derived snapshot of a client's intake-form progress.
// Consumed by the booking flow; absence of a row is a normal empty state.
type IntakeSummary struct {
	UserID            int64     `json:"user_id"`
	CompletionPercent int       `json:"completion_percent"`
	CompletedStages   []string  `json:"completed_stages"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReadyForBooking gates the booking intake step.
func (s *IntakeSummary) ReadyForBooking() bool {
	return s != nil && s.CompletionPercent >= 100
}
