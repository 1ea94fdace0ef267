package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChannelName(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		wantErr bool
	}{
		{"valid", "teststreamer", false},
		{"valid with separators", "test_streamer-99", false},
		{"empty", "", true},
		{"uppercase", "TestStreamer", true},
		{"spaces", "test streamer", true},
		{"path traversal", "../etc/passwd", true},
		{"too long", string(make([]byte, 51)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChannelName(tt.channel)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateChatroomID(t *testing.T) {
	assert.NoError(t, ValidateChatroomID("777"))
	assert.Error(t, ValidateChatroomID(""))
	assert.Error(t, ValidateChatroomID("77a"))
	assert.Error(t, ValidateChatroomID("-1"))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://kick.com"))
	assert.NoError(t, ValidateURL("wss://ws-us2.pusher.com/app/key?protocol=7"))
	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("https://"))
	assert.Error(t, ValidateURL("::bad::"))
}
