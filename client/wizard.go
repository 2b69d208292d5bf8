package client

// Wizard phases for the consultant application.
const (
	PhaseInitial    = "initial"
	PhaseAdditional = "additional"
)

// ApplicationState is the slice of the application record the wizard needs.
type ApplicationState struct {
	SectionCompleted  [7]bool
	SectionsRequested []int
	Status            string
}

// ResolvePhase decides where a resumed wizard lands. The additional-sections
// form is shown only when the backend has explicitly asked for more: section
// 1 complete, a non-empty request list, and the requested sections still
// outstanding. Everything else stays on the initial phase, whose terminal
// screen is "pending admin review".
func ResolvePhase(app ApplicationState) string {
	if !app.SectionCompleted[0] || len(app.SectionsRequested) == 0 {
		return PhaseInitial
	}
	for _, sec := range app.SectionsRequested {
		if sec >= 1 && sec <= len(app.SectionCompleted) && !app.SectionCompleted[sec-1] {
			return PhaseAdditional
		}
	}
	return PhaseInitial
}

// AllSectionsComplete reports whether every section flag is set; the admin
// Approve control is shown only then.
func AllSectionsComplete(app ApplicationState) bool {
	for _, done := range app.SectionCompleted {
		if !done {
			return false
		}
	}
	return true
}

// OnlyFirstSectionComplete gates the admin "request additional sections"
// control: visible iff exactly section 1 is complete.
func OnlyFirstSectionComplete(app ApplicationState) bool {
	if !app.SectionCompleted[0] {
		return false
	}
	for _, done := range app.SectionCompleted[1:] {
		if done {
			return false
		}
	}
	return true
}
