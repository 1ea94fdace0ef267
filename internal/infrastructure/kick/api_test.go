package kick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"kickpulse/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewResolver(ResolverConfig{APIBase: server.URL}, zaptest.NewLogger(t).Sugar()), server
}

func TestResolver_ResolveChannel(t *testing.T) {
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/channels/teststreamer", r.URL.Path)
		assert.Equal(t, "kickpulse", r.Header.Get("User-Agent"))
		w.Write([]byte(`{
			"chatroom": {"id": 777},
			"livestream": {"viewer_count": 1500, "playback_url": "https://cdn.example/live.m3u8"}
		}`))
	})

	info, err := resolver.ResolveChannel(context.Background(), "teststreamer")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatroomID("777"), info.ChatroomID)
	require.NotNil(t, info.ViewerCount)
	assert.Equal(t, 1500, *info.ViewerCount)
	assert.Equal(t, "https://cdn.example/live.m3u8", info.PlaybackURL)
}

func TestResolver_ResolveChannelCamelCaseKeys(t *testing.T) {
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"chatroom": {"id": "888"},
			"livestream": {"viewerCount": 25, "playbackUrl": "https://cdn.example/alt.m3u8"}
		}`))
	})

	info, err := resolver.ResolveChannel(context.Background(), "altkeys")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatroomID("888"), info.ChatroomID)
	require.NotNil(t, info.ViewerCount)
	assert.Equal(t, 25, *info.ViewerCount)
	assert.Equal(t, "https://cdn.example/alt.m3u8", info.PlaybackURL)
}

func TestResolver_ChannelNotFound(t *testing.T) {
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := resolver.ResolveChannel(context.Background(), "nosuchchannel")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestResolver_MissingChatroom(t *testing.T) {
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"livestream": null}`))
	})

	_, err := resolver.ResolveChannel(context.Background(), "offline")
	assert.ErrorIs(t, err, domain.ErrChatroomNotFound)
}

func TestResolver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"chatroom": {"id": 1}}`))
	})

	info, err := resolver.ResolveChannel(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatroomID("1"), info.ChatroomID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolver_ProxyMode(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channel", r.URL.Path)
		assert.Equal(t, "teststreamer", r.URL.Query().Get("name"))
		w.Write([]byte(`{"chatroomId": 4242}`))
	}))
	defer proxy.Close()

	resolver := NewResolver(ResolverConfig{APIBase: "https://unused.invalid", Proxy: proxy.URL}, zaptest.NewLogger(t).Sugar())
	info, err := resolver.ResolveChannel(context.Background(), "teststreamer")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatroomID("4242"), info.ChatroomID)
}

func TestResolver_FetchViewerCount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int
	}{
		{"live", `{"livestream": {"viewer_count": 99}}`, intPtr(99)},
		{"offline", `{"livestream": null}`, nil},
		{"live without count", `{"livestream": {}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			count, err := resolver.FetchViewerCount(context.Background(), "c")
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, count)
			} else {
				require.NotNil(t, count)
				assert.Equal(t, *tt.want, *count)
			}
		})
	}
}

func TestResolver_ResolveStreamURL(t *testing.T) {
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chatroom": {"id": 1}, "playback_url": "https://cdn.example/top.m3u8"}`))
	})
	streamURL, err := resolver.ResolveStreamURL(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/top.m3u8", streamURL)

	missing, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chatroom": {"id": 1}}`))
	})
	_, err = missing.ResolveStreamURL(context.Background(), "c")
	assert.ErrorIs(t, err, domain.ErrStreamURLMissing)
}

func TestResolver_CachesChannelMetadata(t *testing.T) {
	var calls atomic.Int32
	resolver, _ := newTestResolver(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"chatroom": {"id": 1}, "playback_url": "https://cdn.example/live.m3u8", "livestream": {"viewer_count": 10}}`))
	})
	defer resolver.Close()

	_, err := resolver.ResolveChannel(context.Background(), "cached")
	require.NoError(t, err)
	_, err = resolver.ResolveStreamURL(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// viewer polls always hit the origin
	_, err = resolver.FetchViewerCount(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func intPtr(v int) *int { return &v }
