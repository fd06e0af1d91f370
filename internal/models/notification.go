package models

import (
	"fmt"
	"time"
)

// NotificationType enumerates the kinds of in-app notifications the
// server emits.
type NotificationType string

const (
	NotificationApplicationViewed  NotificationType = "application_viewed"
	NotificationApplicationRanked  NotificationType = "application_ranked"
	NotificationCandidateMessage   NotificationType = "candidate_message"
	NotificationInterviewScheduled NotificationType = "interview_scheduled"
	NotificationOfferReceived      NotificationType = "offer_received"
	NotificationExamAssigned       NotificationType = "exam_assigned"
)

// Priority is the server-assigned urgency of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Notification is created server-side; the client only ever toggles the
// read flag. The job/application/match references are by id only and may
// dangle, so render with RelatedLabel rather than resolving them.
type Notification struct {
	ID            int64            `json:"id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Priority      Priority         `json:"priority"`
	Read          bool             `json:"read"`
	JobID         *int64           `json:"job_id,omitempty"`
	ApplicationID *int64           `json:"application_id,omitempty"`
	MatchID       *int64           `json:"match_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RelatedLabel describes the referenced entity for display. A dangling
// or absent reference is tolerated and yields a fallback string.
func (n Notification) RelatedLabel() string {
	switch {
	case n.JobID != nil:
		return fmt.Sprintf("job #%d", *n.JobID)
	case n.ApplicationID != nil:
		return fmt.Sprintf("application #%d", *n.ApplicationID)
	case n.MatchID != nil:
		return fmt.Sprintf("match #%d", *n.MatchID)
	}
	return "(no reference)"
}
