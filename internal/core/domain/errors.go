package domain

import "errors"

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrChatroomNotFound = errors.New("chatroom not found")
	ErrStreamURLMissing = errors.New("stream url not available")
	ErrSessionRunning   = errors.New("session already running")
	ErrSessionStopped   = errors.New("session already stopped")
	ErrLogClosed        = errors.New("session log closed")
)
