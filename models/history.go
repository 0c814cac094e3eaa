package models

// HistoryEntry is one archived, fully-rated meeting. Entries are append-only
// and stored oldest first; presentation reverses the order.
type HistoryEntry struct {
	Film             string  `json:"film"`
	Director         string  `json:"director"`
	Genre            string  `json:"genre"`
	Country          string  `json:"country"`
	Year             int     `json:"year"`
	Description      string  `json:"description"`
	Average          float64 `json:"average"`
	Participants     int     `json:"participants"`
	Date             string  `json:"date"`
	Poster           string  `json:"poster"`
	DiscussionNumber int     `json:"discussionNumber"`
}
