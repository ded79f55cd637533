package model

// Thought is the presentation-layer view of an Entry: the same data plus a
// human-readable timestamp for the templates. It is derived on render and
// never persisted.
type Thought struct {
	ID           int64
	Text         string
	Competencies []int64
	DisplayDate  string
}

// displayDateLayout is how timestamps appear in the today widget and the
// history list, e.g. "Sunday, 23 August 2026 at 14:05".
const displayDateLayout = "Monday, 2 January 2006 at 15:04"

// NewThought derives the display view of an entry.
func NewThought(e Entry) Thought {
	competencies := e.Competencies
	if competencies == nil {
		competencies = []int64{}
	}
	return Thought{
		ID:           e.ID,
		Text:         e.Text,
		Competencies: competencies,
		DisplayDate:  e.CreatedAt.Local().Format(displayDateLayout),
	}
}

// NewThoughts maps a slice of entries, preserving order.
func NewThoughts(entries []Entry) []Thought {
	thoughts := make([]Thought, 0, len(entries))
	for _, e := range entries {
		thoughts = append(thoughts, NewThought(e))
	}
	return thoughts
}
