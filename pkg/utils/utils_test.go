package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestStreamer", "teststreamer"},
		{"chatroom-777", "chatroom-777"},
		{"  Spaced Name  ", "spaced-name"},
		{"weird/../../path", "weird-..-..-path"},
		{"héllo wörld", "héllo-wörld"},
		{"///", "session"},
		{"", "session"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileSlug(tt.in), "FileSlug(%q)", tt.in)
	}
}

func TestTimestamp(t *testing.T) {
	at := time.Date(2026, 9, 1, 15, 4, 5, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "20260901-130405", Timestamp(at))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "long st...", TruncateString("long string here", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}
