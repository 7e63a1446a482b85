package events

import (
	"time"

	"github.com/google/uuid"
)

// Challenge event types
const (
	EventChallengeCreated   = "challenge_created"
	EventChallengeUpdated   = "challenge_updated"
	EventChallengeCompleted = "challenge_completed"
	EventChallengeDeleted   = "challenge_deleted"
	EventItemToggled        = "challenge_item_toggled"
	EventDailyLogRecorded   = "challenge_log_recorded"
)

// ChallengeEvent is published on challenge mutations so downstream
// consumers (dashboard, cache invalidation) can react.
type ChallengeEvent struct {
	EventType   string      `json:"event_type"`
	UserID      uuid.UUID   `json:"user_id"`
	ChallengeID uuid.UUID   `json:"challenge_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Details     interface{} `json:"details,omitempty"`
}
