package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith-Go/0.1.0"

// Event identifies a pipeline milestone that may produce a push notification.
type Event string

const (
	EventRunStarted  Event = "run-started"
	EventScriptReady Event = "script-ready"
	EventVideoReady  Event = "video-ready"
	EventPublished   Event = "published"
	EventError       Event = "error"
	EventTest        Event = "test"
)

// Payload carries the event-specific fields used to render a message.
type Payload map[string]string

func (p Payload) get(key string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[key])
}

// Service publishes pipeline events to the configured notification backend.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventRunStarted:  cfg.Notifications.RunStarted,
			EventScriptReady: cfg.Notifications.ScriptReady,
			EventVideoReady:  cfg.Notifications.VideoReady,
			EventPublished:   cfg.Notifications.Published,
			EventError:       cfg.Notifications.Errors,
			EventTest:        true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	data, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunStarted:
		topic := payload.get("topic")
		body := "🎬 Generation run started"
		if topic != "" {
			body = fmt.Sprintf("🎬 Generation run started: %s", topic)
		}
		return message{
			title: "Reelsmith - Run Started",
			body:  body,
			tags:  []string{"reelsmith", "run", "started"},
		}, true
	case EventScriptReady:
		return message{
			title: "Reelsmith - Script Ready",
			body:  fmt.Sprintf("📝 Script generated: %s (%s scenes)", payload.get("title"), payload.get("scenes")),
			tags:  []string{"reelsmith", "script", "ready"},
		}, true
	case EventVideoReady:
		body := fmt.Sprintf("🎞️ Video assembled: %s", payload.get("title"))
		if file := payload.get("file"); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title: "Reelsmith - Video Ready",
			body:  body,
			tags:  []string{"reelsmith", "video", "ready"},
		}, true
	case EventPublished:
		body := fmt.Sprintf("✅ Published: %s", payload.get("title"))
		if url := payload.get("url"); url != "" {
			body = fmt.Sprintf("%s\n%s", body, url)
		}
		return message{
			title:    "Reelsmith - Published",
			body:     body,
			tags:     []string{"reelsmith", "publish", "completed"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.get("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := payload.get("error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Reelsmith - Error",
			body:     builder.String(),
			tags:     []string{"reelsmith", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Reelsmith - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"reelsmith", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
