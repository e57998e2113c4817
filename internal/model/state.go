package model

// State is the record shared by the pipeline nodes for one run. It lives
// only as long as the process.
type State struct {
	RunID    int64
	Round    int // 1 for the first draft, +1 per review revision
	SpecText string
	Feedback string // Reviewer feedback for the current round, empty on round 1

	Analysis   string   // Written by the reader
	Tickets    []Ticket // Written by the writer
	RawTickets string   // Writer output as returned by the model
}

func NewState(runID int64, specText string) *State {
	return &State{
		RunID:    runID,
		Round:    1,
		SpecText: specText,
	}
}
