// Package kick implements the event ingestion port against Kick.com:
// channel resolution over the REST API, chat over the Pusher
// websocket, and periodic viewer-count polling.
package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/pkg/cache"
	apperrors "kickpulse/pkg/errors"
	"kickpulse/pkg/retry"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ChannelInfo is what the resolver extracts from the channel endpoint.
type ChannelInfo struct {
	ChatroomID  domain.ChatroomID
	ViewerCount *int
	PlaybackURL string
}

// ResolverConfig configures the Kick REST client.
type ResolverConfig struct {
	APIBase  string
	Proxy    string // optional resolver proxy base URL
	Timeout  time.Duration
	CacheTTL time.Duration // channel metadata cache lifetime
}

// Resolver fetches channel metadata from the Kick API (or a configured
// proxy). Requests are rate-limited and retried with backoff; channel
// metadata is cached briefly so startup lookups reuse one fetch.
// Viewer-count polls always go to the origin.
type Resolver struct {
	cfg      ResolverConfig
	client   *http.Client
	limiter  *rate.Limiter
	retryCfg retry.Config
	channels *cache.Cache
	logger   *zap.SugaredLogger
}

func NewResolver(cfg ResolverConfig, logger *zap.SugaredLogger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &Resolver{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		retryCfg: retry.DefaultConfig(),
		channels: cache.New(cfg.CacheTTL),
		logger:   logger,
	}
}

// Close releases the metadata cache.
func (r *Resolver) Close() {
	r.channels.Stop()
}

// channelResponse covers both key spellings Kick has used over time.
type channelResponse struct {
	Chatroom *struct {
		ID json.Number `json:"id"`
	} `json:"chatroom"`
	Livestream *struct {
		ViewerCount     *int   `json:"viewer_count"`
		ViewerCountCap  *int   `json:"viewerCount"`
		PlaybackURL     string `json:"playback_url"`
		PlaybackURLCap  string `json:"playbackUrl"`
		HLS             string `json:"hls"`
	} `json:"livestream"`
	PlaybackURL    string `json:"playback_url"`
	PlaybackURLCap string `json:"playbackUrl"`
}

type proxyChannelResponse struct {
	ChatroomID json.Number `json:"chatroomId"`
}

// ResolveChannel looks up the chatroom id, current viewer count and
// playback URL for a channel name.
func (r *Resolver) ResolveChannel(ctx context.Context, channel string) (*ChannelInfo, error) {
	if r.cfg.Proxy != "" {
		var resp proxyChannelResponse
		endpoint := fmt.Sprintf("%s/channel?name=%s", strings.TrimRight(r.cfg.Proxy, "/"), url.QueryEscape(channel))
		if err := r.fetchJSON(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		if resp.ChatroomID.String() == "" {
			return nil, fmt.Errorf("resolve %q via proxy: %w", channel, domain.ErrChatroomNotFound)
		}
		return &ChannelInfo{ChatroomID: domain.ChatroomID(resp.ChatroomID.String())}, nil
	}

	resp, err := r.fetchChannel(ctx, channel, false)
	if err != nil {
		return nil, err
	}

	info := &ChannelInfo{}
	if resp.Chatroom != nil && resp.Chatroom.ID.String() != "" {
		info.ChatroomID = domain.ChatroomID(resp.Chatroom.ID.String())
	}
	if resp.Livestream != nil {
		if resp.Livestream.ViewerCount != nil {
			info.ViewerCount = resp.Livestream.ViewerCount
		} else if resp.Livestream.ViewerCountCap != nil {
			info.ViewerCount = resp.Livestream.ViewerCountCap
		}
	}
	info.PlaybackURL = firstNonEmpty(
		livestreamPlayback(resp),
		resp.PlaybackURL,
		resp.PlaybackURLCap,
	)
	if info.ChatroomID == "" {
		return nil, fmt.Errorf("resolve %q: %w", channel, domain.ErrChatroomNotFound)
	}
	return info, nil
}

// FetchViewerCount re-fetches the channel and returns the current
// viewer count, or nil when the channel is not live.
func (r *Resolver) FetchViewerCount(ctx context.Context, channel string) (*int, error) {
	resp, err := r.fetchChannel(ctx, channel, true)
	if err != nil {
		return nil, err
	}
	if resp.Livestream == nil {
		return nil, nil
	}
	if resp.Livestream.ViewerCount != nil {
		return resp.Livestream.ViewerCount, nil
	}
	return resp.Livestream.ViewerCountCap, nil
}

// ResolveStreamURL returns the HLS playback URL for captures.
func (r *Resolver) ResolveStreamURL(ctx context.Context, channel string) (string, error) {
	resp, err := r.fetchChannel(ctx, channel, false)
	if err != nil {
		return "", err
	}
	streamURL := firstNonEmpty(livestreamPlayback(resp), resp.PlaybackURL, resp.PlaybackURLCap)
	if streamURL == "" {
		return "", fmt.Errorf("resolve stream url for %q: %w", channel, domain.ErrStreamURLMissing)
	}
	return streamURL, nil
}

// fetchChannel fetches the channel endpoint, serving the cached
// response unless fresh is set.
func (r *Resolver) fetchChannel(ctx context.Context, channel string, fresh bool) (*channelResponse, error) {
	key := "channel:" + channel
	if !fresh {
		if cached, ok := r.channels.Get(key); ok {
			return cached.(*channelResponse), nil
		}
	}

	endpoint := fmt.Sprintf("%s/api/v2/channels/%s", strings.TrimRight(r.cfg.APIBase, "/"), url.PathEscape(channel))
	resp := &channelResponse{}
	if err := r.fetchJSON(ctx, endpoint, resp); err != nil {
		return nil, err
	}
	r.channels.Set(key, resp)
	return resp, nil
}

func (r *Resolver) fetchJSON(ctx context.Context, endpoint string, out interface{}) error {
	return retry.Retry(ctx, r.retryCfg, func() error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeResolve, "failed to build request")
		}
		req.Header.Set("User-Agent", "kickpulse")

		resp, err := r.client.Do(req)
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeResolve, "request failed")
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", endpoint, domain.ErrChannelNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			return apperrors.NewAppError(apperrors.ErrCodeResolve,
				fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, endpoint))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeResolve, "failed to read response")
		}
		if err := json.Unmarshal(body, out); err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeResolve, "failed to decode response")
		}
		return nil
	})
}

func livestreamPlayback(resp *channelResponse) string {
	if resp.Livestream == nil {
		return ""
	}
	return firstNonEmpty(resp.Livestream.PlaybackURL, resp.Livestream.PlaybackURLCap, resp.Livestream.HLS)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
