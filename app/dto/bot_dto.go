package dto

// AddMeetingRequest is the parsed 11-field admin announcement
type AddMeetingRequest struct {
	Date             string `json:"date" validate:"required"`
	Time             string `json:"time" validate:"required"`
	Place            string `json:"place" validate:"required"`
	Film             string `json:"film" validate:"required"`
	Director         string `json:"director" validate:"required"`
	Genre            string `json:"genre" validate:"required"`
	Country          string `json:"country" validate:"required"`
	Year             int    `json:"year" validate:"required,gte=1895,lte=2100"`
	Poster           string `json:"poster" validate:"omitempty,url"`
	DiscussionNumber int    `json:"discussion_number" validate:"required,gt=0"`
	Description      string `json:"description" validate:"required"`
}

// VotingStatusResponse describes the rating round after an admin action
type VotingStatusResponse struct {
	Film       string   `json:"film,omitempty"`
	Open       bool     `json:"open"`
	ScoreCount int      `json:"score_count"`
	Average    *float64 `json:"average,omitempty"`
}

// BroadcastReport summarizes a best-effort delivery loop
type BroadcastReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Pruned    int `json:"pruned"`
}
