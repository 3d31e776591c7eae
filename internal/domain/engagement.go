package domain

import "time"

// ChatEngagementState tracks unsolicited-post timers for one chat.
// Owned exclusively by the engagement scheduler; timestamps are
// monotonically non-decreasing for the life of the process.
type ChatEngagementState struct {
	Channel              string
	ChatID               string
	LastDailyPost        time.Time
	LastGreeting         time.Time
	MessagesSinceTrigger int
}
