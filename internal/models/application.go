package models

import "time"

// Section identifies one of the seven consultant application sections.
type Section int

const (
	SectionContact Section = iota + 1
	SectionPractice
	SectionExpertise
	SectionLanguages
	SectionInsurance
	SectionDeclarations
	SectionSignature
)

// SectionSet is a bitmask of completed sections. It replaces the seven
// independent section_N_completed flags of the public wire format.
type SectionSet uint8

func (s SectionSet) Has(sec Section) bool {
	if sec < 1 || sec > SectionCount {
		return false
	}
	return s&(1<<(sec-1)) != 0
}

func (s SectionSet) Add(sec Section) SectionSet {
	if sec < 1 || sec > SectionCount {
		return s
	}
	return s | (1 << (sec - 1))
}

// Complete reports whether all seven sections are done.
func (s SectionSet) Complete() bool {
	return s == (1<<SectionCount)-1
}

// OnlyFirst reports whether exactly Section 1 is complete. This is the
// precondition for an admin requesting the remaining sections.
func (s SectionSet) OnlyFirst() bool {
	return s == 1
}

func (s SectionSet) Count() int {
	n := 0
	for sec := Section(1); sec <= SectionCount; sec++ {
		if s.Has(sec) {
			n++
		}
	}
	return n
}

// Flags returns the wire representation: index 0 is section_1_completed.
func (s SectionSet) Flags() [SectionCount]bool {
	var out [SectionCount]bool
	for sec := Section(1); sec <= SectionCount; sec++ {
		out[sec-1] = s.Has(sec)
	}
	return out
}

// SectionSetFromFlags rebuilds the mask from wire booleans.
func SectionSetFromFlags(flags [SectionCount]bool) SectionSet {
	var s SectionSet
	for i, f := range flags {
		if f {
			s = s.Add(Section(i + 1))
		}
	}
	return s
}

// ConsultantApplication is the multi-section RCIC onboarding record.
// Created with Section 1 only; the admin may request sections 2-7, the
// applicant completes them, and the admin approves or rejects.
type ConsultantApplication struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone"`
	LicenseNumber     string     `json:"license_number"`
	Status            string     `json:"status"` // pending, approved, rejected
	Sections          SectionSet `json:"-"`
	SectionsRequested []int      `json:"sections_requested"`

	// Sections 2-7 payload.
	PracticeName      string `json:"practice_name"`
	PracticeAddress   string `json:"practice_address"`
	YearsOfExperience int    `json:"years_of_experience"`
	ExpertiseAreas    string `json:"expertise_areas"`
	Languages         string `json:"languages"`
	InsuranceProvider string `json:"insurance_provider"`
	InsurancePolicy   string `json:"insurance_policy"`
	Declarations      bool   `json:"declarations_accepted"`
	Signature         string `json:"signature"`

	AdminNotes string    `json:"admin_notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ApplicationDocument is a file attached to an application, either by the
// applicant (sections payload) or by an admin (review material).
type ApplicationDocument struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	Kind          string    `json:"kind"` // applicant, admin
	FileName      string    `json:"file_name"`
	StoredName    string    `json:"stored_name"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// CanApprove: every section complete and still pending.
func (a *ConsultantApplication) CanApprove() bool {
	return a.Status == StatusPending && a.Sections.Complete()
}

// CanReject: any pending application may be rejected.
func (a *ConsultantApplication) CanReject() bool {
	return a.Status == StatusPending
}

// CanRequestSections: exactly Section 1 complete, nothing else.
func (a *ConsultantApplication) CanRequestSections() bool {
	return a.Status == StatusPending && a.Sections.OnlyFirst()
}

// CanSendCredentials: only approved consultants receive credentials.
func (a *ConsultantApplication) CanSendCredentials() bool {
	return a.Status == StatusApproved
}
