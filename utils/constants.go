package utils

// Score bounds for a rating round
const (
	MinScore = 1
	MaxScore = 10
)

// ParticipantKeyPrefix is the prefix of the synthetic participant
// identifiers stored in a voting record (participant_1, participant_2, ...)
const ParticipantKeyPrefix = "participant_"

// MeetingFieldCount is the number of pipe-delimited fields an admin must
// supply when announcing the next meeting
const MeetingFieldCount = 11

// Placeholder values for a meeting that has not been announced yet
const (
	MeetingNotChosen   = "Не выбрано"
	MeetingToBeDecided = "Уточняется"
)
