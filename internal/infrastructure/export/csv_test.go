package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"type":"session_start","channel":"teststreamer","chatroom_id":"777","started_at":"2026-09-01T10:00:00Z"}
{"type":"message","timestamp":"2026-09-01T10:00:00.5Z","sender_id":"1","sender_name":"alice","text":"hello"}
{"type":"snapshot","timestamp":"2026-09-01T10:00:01Z","viewer_count":120,"messages_per_minute":1,"messages_per_second":1,"unique_per_minute":1,"unique_per_second":1,"total_messages":1,"unique_total":1,"top_chatters":[{"sender_id":"1","sender_name":"alice","count":1}],"screenshot":{"path":"shots/shot-1.jpg","embedded":null,"error":null}}
{"type":"message","timestamp":"2026-09-01T10:00:01.2Z","sender_id":"2","sender_name":"bob","text":"a, \"quoted\" line"}
{"type":"snapshot","timestamp":"2026-09-01T10:00:02Z","viewer_count":null,"messages_per_minute":2,"messages_per_second":1,"unique_per_minute":2,"unique_per_second":1,"total_messages":2,"unique_total":2,"top_chatters":[],"screenshot":null}
{"type":"snapshot","timestamp":"2026-09-01T10:00:03Z","viewer_count":130,"messages_per_minute":2,"messages_per_second":0,"unique_per_minute":2,"unique_per_second":0,"total_messages":2,"unique_total":2,"top_chatters":[],"screenshot":{"path":null,"embedded":null,"error":"capture timed out"}}
`

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSessionMetricsCSV(t *testing.T) {
	var out bytes.Buffer
	summary, err := SessionMetricsCSV(context.Background(), strings.NewReader(sampleLog), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 3, Skipped: 0}, summary)

	rows := parseCSV(t, out.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{
		"timestamp", "channel", "messages_per_minute", "messages_per_second",
		"unique_per_minute", "unique_per_second", "total_messages",
		"unique_total", "viewer_count", "screenshot_path",
	}, rows[0])

	assert.Equal(t, []string{
		"2026-09-01T10:00:01Z", "teststreamer", "1", "1", "1", "1", "1", "1", "120", "shots/shot-1.jpg",
	}, rows[1])

	// unknown viewer count exports as empty, screenshot path carries
	// forward from the last successful capture
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "shots/shot-1.jpg", rows[2][9])

	// a failed capture does not replace the carried path
	assert.Equal(t, "130", rows[3][8])
	assert.Equal(t, "shots/shot-1.jpg", rows[3][9])
}

func TestMessagesCSV(t *testing.T) {
	var out bytes.Buffer
	summary, err := MessagesCSV(context.Background(), strings.NewReader(sampleLog), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 2, Skipped: 0}, summary)

	rows := parseCSV(t, out.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "sender_id", "sender_name", "text"}, rows[0])
	assert.Equal(t, []string{"2026-09-01T10:00:00.5Z", "1", "alice", "hello"}, rows[1])

	// commas and quotes in the text column survive the round trip
	assert.Equal(t, `a, "quoted" line`, rows[2][3])
}

func TestExport_Idempotent(t *testing.T) {
	var first, second bytes.Buffer
	_, err := SessionMetricsCSV(context.Background(), strings.NewReader(sampleLog), &first)
	require.NoError(t, err)
	_, err = SessionMetricsCSV(context.Background(), strings.NewReader(sampleLog), &second)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestExport_SkipsDamagedRecords(t *testing.T) {
	damaged := sampleLog + "garbage line\n" + `{"type":"mystery"}` + "\n"

	var out bytes.Buffer
	summary, err := SessionMetricsCSV(context.Background(), strings.NewReader(damaged), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Skipped)
}

func TestExport_EmptyLogYieldsHeaderOnly(t *testing.T) {
	var out bytes.Buffer
	summary, err := MessagesCSV(context.Background(), strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)

	rows := parseCSV(t, out.Bytes())
	require.Len(t, rows, 1)
}
