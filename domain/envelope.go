package domain

// EnvelopeAssignment is what a visitor sees: the seeded ordering of the
// country-specific amounts plus their pick state.
type EnvelopeAssignment struct {
	Amounts      []int64 `json:"amounts"`
	Country      string  `json:"country"`
	HasPicked    bool    `json:"has_picked"`
	PickedAmount *int64  `json:"picked_amount"`
}

// PickRequest carries a visitor's final envelope choice.
type PickRequest struct {
	Name             string
	SelectedEnvelope *int
	Amount           *int64
	ClientHints      map[string]any
}

// PickResult reports a recorded pick. On an already-picked rejection,
// PickedAmount holds the originally recorded amount, not the submitted one.
type PickResult struct {
	VisitID      uint
	Country      string
	PickedAmount *int64
}

// TrackRequest is the legacy form-flow tracking payload.
type TrackRequest struct {
	Name        string
	Amount      *int64
	ClientHints map[string]any
}
