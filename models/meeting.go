// Package models contains the persisted document types of the club bot
package models

import (
	"github.com/ulysses-club/odissea/utils"
)

// Meeting describes the upcoming screening announced by an administrator.
// There is at most one current meeting; it is overwritten wholesale on every
// admin submission and reset to the placeholder after a round is archived.
type Meeting struct {
	Date             string `json:"date"`
	Time             string `json:"time"`
	Place            string `json:"place"`
	Film             string `json:"film"`
	Director         string `json:"director"`
	Genre            string `json:"genre"`
	Country          string `json:"country"`
	Year             int    `json:"year"`
	Poster           string `json:"poster"`
	DiscussionNumber int    `json:"discussionNumber"`
	Description      string `json:"description"`
	Requirements     string `json:"requirements"`
}

// DefaultMeeting returns the "not yet announced" placeholder record
func DefaultMeeting() Meeting {
	return Meeting{
		Date:         utils.MeetingToBeDecided,
		Time:         utils.MeetingToBeDecided,
		Place:        utils.MeetingToBeDecided,
		Film:         utils.MeetingNotChosen,
		Director:     utils.MeetingNotChosen,
		Genre:        utils.MeetingNotChosen,
		Country:      utils.MeetingNotChosen,
		Poster:       "",
		Description:  utils.MeetingToBeDecided,
		Requirements: utils.MeetingToBeDecided,
	}
}

// IsAnnounced reports whether the meeting holds a real announcement rather
// than placeholder values
func (m Meeting) IsAnnounced() bool {
	return m.Film != "" && m.Film != utils.MeetingNotChosen
}
