package domain

import "time"

// Persisted record kinds. These are the only three shapes that appear
// in a session log.
const (
	RecordTypeSessionStart = "session_start"
	RecordTypeSnapshot     = "snapshot"
	RecordTypeMessage      = "message"
)

// RecordEnvelope carries just the discriminant, used to dispatch while
// reading a log back.
type RecordEnvelope struct {
	Type string `json:"type"`
}

// SessionStartRecord is the first record of every session log.
type SessionStartRecord struct {
	Type       string    `json:"type"`
	Channel    string    `json:"channel"`
	ChatroomID *string   `json:"chatroom_id"`
	StartedAt  time.Time `json:"started_at"`
}

// TopChatterRecord is one ranked participant inside a snapshot record.
type TopChatterRecord struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Count      int    `json:"count"`
}

// ScreenshotRecord is the capture outcome embedded in a snapshot
// record. All fields are nullable on the wire.
type ScreenshotRecord struct {
	Path     *string `json:"path"`
	Embedded *string `json:"embedded"`
	Error    *string `json:"error"`
}

// SnapshotRecord is the wire form of a Snapshot.
type SnapshotRecord struct {
	Type              string             `json:"type"`
	Timestamp         time.Time          `json:"timestamp"`
	ViewerCount       *int               `json:"viewer_count"`
	MessagesPerMinute int                `json:"messages_per_minute"`
	MessagesPerSecond int                `json:"messages_per_second"`
	UniquePerMinute   int                `json:"unique_per_minute"`
	UniquePerSecond   int                `json:"unique_per_second"`
	TotalMessages     int                `json:"total_messages"`
	UniqueTotal       int                `json:"unique_total"`
	TopChatters       []TopChatterRecord `json:"top_chatters"`
	Screenshot        *ScreenshotRecord  `json:"screenshot"`
}

// MessageRecord is the wire form of one ingested chat message.
type MessageRecord struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
}

// NewSessionStartRecord builds the wire form of a session header.
func NewSessionStartRecord(session Session) SessionStartRecord {
	rec := SessionStartRecord{
		Type:      RecordTypeSessionStart,
		Channel:   session.ChannelName,
		StartedAt: session.StartedAt,
	}
	if session.ChatroomID != "" {
		id := string(session.ChatroomID)
		rec.ChatroomID = &id
	}
	return rec
}

// NewSnapshotRecord builds the wire form of a snapshot.
func NewSnapshotRecord(snapshot Snapshot) SnapshotRecord {
	rec := SnapshotRecord{
		Type:              RecordTypeSnapshot,
		Timestamp:         snapshot.Timestamp,
		ViewerCount:       snapshot.ViewerCount,
		MessagesPerMinute: snapshot.Counts.MessagesPerMinute,
		MessagesPerSecond: snapshot.Counts.MessagesPerSecond,
		UniquePerMinute:   snapshot.Counts.UniquePerMinute,
		UniquePerSecond:   snapshot.Counts.UniquePerSecond,
		TotalMessages:     snapshot.Counts.TotalMessages,
		UniqueTotal:       snapshot.Counts.UniqueTotal,
		TopChatters:       make([]TopChatterRecord, 0, len(snapshot.TopChatters)),
	}
	for _, chatter := range snapshot.TopChatters {
		rec.TopChatters = append(rec.TopChatters, TopChatterRecord{
			SenderID:   chatter.SenderID,
			SenderName: chatter.SenderName,
			Count:      chatter.Count,
		})
	}
	if snapshot.Screenshot != nil {
		shot := &ScreenshotRecord{}
		if snapshot.Screenshot.Path != "" {
			path := snapshot.Screenshot.Path
			shot.Path = &path
		}
		if snapshot.Screenshot.Embedded != "" {
			embedded := snapshot.Screenshot.Embedded
			shot.Embedded = &embedded
		}
		if snapshot.Screenshot.Err != "" {
			errText := snapshot.Screenshot.Err
			shot.Error = &errText
		}
		rec.Screenshot = shot
	}
	return rec
}

// NewMessageRecord builds the wire form of a chat message event.
func NewMessageRecord(event ChatMessageEvent) MessageRecord {
	return MessageRecord{
		Type:       RecordTypeMessage,
		Timestamp:  event.ReceivedAt,
		SenderID:   event.SenderID,
		SenderName: event.SenderName,
		Text:       event.Text,
	}
}
