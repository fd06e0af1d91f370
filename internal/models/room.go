// Package models defines data structures for the Talentline client.
package models

import "time"

// ChatRoom is a 1:1 conversation between a candidate and a recruiter,
// created server-side when a match becomes chat-eligible. Immutable on
// the client.
type ChatRoom struct {
	ID          int64     `json:"id"`
	MatchID     int64     `json:"match_id"`
	CandidateID string    `json:"candidate_id"`
	RecruiterID string    `json:"recruiter_id"`
	JobID       *int64    `json:"job_id,omitempty"`
	JobTitle    string    `json:"job_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participants returns both member ids of the room.
func (r ChatRoom) Participants() [2]string {
	return [2]string{r.CandidateID, r.RecruiterID}
}

// Other returns the participant that is not userID. Falls back to the
// candidate when userID belongs to neither side.
func (r ChatRoom) Other(userID string) string {
	if r.CandidateID == userID {
		return r.RecruiterID
	}
	if r.RecruiterID == userID {
		return r.CandidateID
	}
	return r.CandidateID
}
