package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/pkg/retry"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const chatMessageEvent = `App\Events\ChatMessageEvent`

// ChatClientConfig configures the Pusher websocket client.
type ChatClientConfig struct {
	PusherURL  string
	ChatroomID domain.ChatroomID
}

// ChatClient subscribes to a chatroom over Kick's Pusher websocket and
// delivers chat messages to the sink. Read failures trigger a
// reconnect with backoff; events lost or repeated across reconnects
// are delivered as-is.
type ChatClient struct {
	cfg      ChatClientConfig
	dialer   *websocket.Dialer
	retryCfg retry.Config
	logger   *zap.SugaredLogger
}

func NewChatClient(cfg ChatClientConfig, logger *zap.SugaredLogger) *ChatClient {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 5
	retryCfg.InitialDelay = time.Second
	retryCfg.MaxDelay = 30 * time.Second
	return &ChatClient{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// pusherFrame is the outer Pusher envelope; Data is a JSON-encoded
// string, not an object.
type pusherFrame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

type chatMessagePayload struct {
	Sender struct {
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
	} `json:"sender"`
	Content string `json:"content"`
}

// senderID renders the wire id, which arrives as a number or a quoted
// string depending on the event source. Anything else decodes to the
// empty string so the anon fallback applies instead of dropping the
// message.
func senderID(raw json.RawMessage) string {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// Run connects, subscribes and reads until the context is cancelled.
// It returns a non-nil error only when a connection cannot be
// re-established.
func (c *ChatClient) Run(ctx context.Context, sink ports.EventSink) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.connect(ctx)
		if err != nil {
			return fmt.Errorf("connect chat websocket: %w", err)
		}

		err = c.readLoop(ctx, conn, sink)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warnw("chat websocket disconnected, reconnecting", "error", err)
	}
}

func (c *ChatClient) connect(ctx context.Context) (*websocket.Conn, error) {
	return retry.RetryWithResult(ctx, c.retryCfg, func() (*websocket.Conn, error) {
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.PusherURL, nil)
		if err != nil {
			return nil, err
		}

		subscribe := map[string]interface{}{
			"event": "pusher:subscribe",
			"data": map[string]string{
				"auth":    "",
				"channel": fmt.Sprintf("chatrooms.%s.v2", c.cfg.ChatroomID),
			},
		}
		if err := conn.WriteJSON(subscribe); err != nil {
			conn.Close()
			return nil, err
		}

		c.logger.Infow("subscribed to chatroom", "chatroom_id", c.cfg.ChatroomID)
		return conn, nil
	})
}

func (c *ChatClient) readLoop(ctx context.Context, conn *websocket.Conn, sink ports.EventSink) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close() // unblocks ReadMessage
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame pusherFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case "pusher:ping":
			_ = conn.WriteJSON(map[string]interface{}{"event": "pusher:pong", "data": "{}"})
		case chatMessageEvent:
			var payload chatMessagePayload
			if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
				continue
			}

			senderName := payload.Sender.Username
			if senderName == "" {
				senderName = "anon"
			}
			id := senderID(payload.Sender.ID)
			if id == "" {
				id = senderName
			}

			sink.HandleChatMessage(domain.ChatMessageEvent{
				SenderID:   id,
				SenderName: senderName,
				Text:       payload.Content,
				ReceivedAt: time.Now().UTC(),
			})
		}
	}
}
