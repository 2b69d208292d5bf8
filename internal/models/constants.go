package models

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	RoleRCIC   = "rcic"
)

const (
	SubscriberStatusSubscribed   = "subscribed"
	SubscriberStatusUnsubscribed = "unsubscribed"
)

// Subscribe outcomes returned to callers of the newsletter endpoint.
const (
	SubscribeResultSubscribed        = "subscribed"
	SubscribeResultAlreadySubscribed = "already_subscribed"
)

const (
	DocumentKindApplicant = "applicant"
	DocumentKindAdmin     = "admin"
)

const (
	// DefaultBlockedReason is stored when a blocked time is created without one.
	DefaultBlockedReason = "Unavailable"

	// SectionCount is the number of sections in a consultant application.
	SectionCount = 7

	// MaxAdditionalFiles caps the attachments accepted with sections 2-7.
	MaxAdditionalFiles = 4
)

const (
	// DefaultSessionTTL время жизни сессии в Redis
	DefaultSessionTTL = 24 * time.Hour

	// ResetTokenTTL время жизни токена сброса пароля
	ResetTokenTTL = time.Hour

	// RateLimitLoginAttempts попыток входа в окне
	RateLimitLoginAttempts = 10
	RateLimitLoginWindow   = 15 * time.Minute

	// RateLimitResetAttempts запросов сброса пароля в окне
	RateLimitResetAttempts = 3
	RateLimitResetWindow   = time.Hour

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)

// ValidSlotIntervals are the bookable granularities a slot may declare.
var ValidSlotIntervals = []int{15, 30, 60}

func IsValidSlotInterval(minutes int) bool {
	for _, v := range ValidSlotIntervals {
		if v == minutes {
			return true
		}
	}
	return false
}

// DefaultTimezones is the fallback list served when the reference table is
// empty or unreadable.
var DefaultTimezones = []string{
	"America/Toronto",
	"America/Vancouver",
	"America/Edmonton",
	"America/Winnipeg",
	"America/Halifax",
	"America/St_Johns",
	"America/Regina",
	"UTC",
}
