package domain

import "time"

type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	IsGroup   bool // group chats must stay silent for unaddressed text
	NewMember bool // membership join event, greeted like a hello
	Timestamp time.Time
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Format  string // text | markdown
}
