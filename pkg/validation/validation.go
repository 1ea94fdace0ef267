package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ChannelNameRegex matches Kick channel slugs
	ChannelNameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

	// ChatroomIDRegex matches numeric chatroom ids
	ChatroomIDRegex = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateChannelName validates a channel slug
func ValidateChannelName(channel string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return fmt.Errorf("channel name is required")
	}
	if len(channel) > 50 {
		return fmt.Errorf("channel name is too long (max 50 characters)")
	}
	if !ChannelNameRegex.MatchString(channel) {
		return fmt.Errorf("channel name contains invalid characters (only lowercase letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateChatroomID validates a numeric chatroom id
func ValidateChatroomID(chatroomID string) error {
	if chatroomID == "" {
		return fmt.Errorf("chatroom ID is required")
	}
	if !ChatroomIDRegex.MatchString(chatroomID) {
		return fmt.Errorf("chatroom ID must be numeric")
	}
	return nil
}

// ValidateURL validates an absolute http(s) or ws(s) URL
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("URL scheme must be http, https, ws or wss")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}
