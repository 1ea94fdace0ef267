package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string
type ChatroomID string

// Session describes one monitored run of a channel's live chat stream.
// It is created once at engine start and immutable afterwards.
type Session struct {
	ID          SessionID
	ChannelName string
	ChatroomID  ChatroomID
	StartedAt   time.Time
}

// NewSession creates a session for the given channel.
func NewSession(channelName string, chatroomID ChatroomID) Session {
	return Session{
		ID:          SessionID(uuid.NewString()),
		ChannelName: channelName,
		ChatroomID:  chatroomID,
		StartedAt:   time.Now().UTC(),
	}
}

// Label returns a human-readable identifier used in file names. Falls
// back to the chatroom id when the session was started without a
// channel name.
func (s Session) Label() string {
	if s.ChannelName != "" {
		return s.ChannelName
	}
	return "chatroom-" + string(s.ChatroomID)
}
