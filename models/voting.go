package models

// Voting is the rating round for the current (or most recently current)
// film. Descriptive fields are copied from the Meeting when the round opens
// and stay nil while no round is open. Ratings keys are positional
// participant identifiers; Average is recomputed from scratch on every
// mutation and nil while the map is empty.
type Voting struct {
	Film             *string        `json:"film"`
	Director         *string        `json:"director"`
	Genre            *string        `json:"genre"`
	Country          *string        `json:"country"`
	Year             *int           `json:"year"`
	Poster           *string        `json:"poster"`
	DiscussionNumber *int           `json:"discussionNumber"`
	Date             *string        `json:"date"`
	Description      *string        `json:"description"`
	Ratings          map[string]int `json:"ratings"`
	Average          *float64       `json:"average"`
}

// DefaultVoting returns an empty voting record with no open round
func DefaultVoting() Voting {
	return Voting{Ratings: map[string]int{}}
}

// IsOpen reports whether a rating round is open (a film has been copied in)
func (v Voting) IsOpen() bool {
	return v.Film != nil && *v.Film != ""
}

// HasScores reports whether at least one score has been recorded
func (v Voting) HasScores() bool {
	return len(v.Ratings) > 0
}

// Reset wipes the record back to the no-round state
func (v *Voting) Reset() {
	*v = DefaultVoting()
}
