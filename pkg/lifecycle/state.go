package lifecycle

// State describes where a connection sits in its lifecycle. States appear
// in logs, metric labels, and published events.
type State string

const (
	// StateAbsent means no usable record exists for the name.
	StateAbsent State = "absent"

	// StateReconnecting means a recreation sequence is in progress.
	StateReconnecting State = "reconnecting"

	// StateLive means the record answered affirmatively and was returned.
	StateLive State = "live"

	// StateSuspect means an advisory signal (generation disagreement, legacy
	// open-check) disagreed with the record. Suspect alone never invalidates.
	StateSuspect State = "suspect"

	// StateInvalid means the record failed validation and was discarded.
	StateInvalid State = "invalid"
)
