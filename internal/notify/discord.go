// Package notify posts submission alerts to a Discord webhook. Alerts run
// after the triggering write has succeeded and never fail the request.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/utils"
)

const (
	DefaultTimeout = 5 * time.Second

	colorPrayer      = 0x1e3a5f
	colorTestimonial = 0xc9a227
	maxFieldLength   = 1024
)

// WebhookSettings yields the current webhook configuration.
type WebhookSettings interface {
	Webhook(ctx context.Context) (domain.WebhookConfig, error)
}

// Message is one Discord webhook payload.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Discord sends messages to the configured webhook.
type Discord struct {
	settings   WebhookSettings
	httpClient *http.Client
	timeout    time.Duration
	log        logger.Logger
	pending    sync.WaitGroup
}

func NewDiscord(settings WebhookSettings, timeout time.Duration, log logger.Logger) *Discord {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Discord{
		settings: settings,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          4,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
			Timeout: timeout,
		},
		timeout: timeout,
		log:     log,
	}
}

// Notify sends msg in the background. The request context's cancellation
// is dropped so the alert outlives the response.
func (d *Discord) Notify(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	d.pending.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		if err := d.Send(ctx, msg); err != nil {
			d.log.Warn("discord notification failed", logger.Error(err))
		}
	})
}

// Wait blocks until every background notification finished.
func (d *Discord) Wait() {
	d.pending.Wait()
}

// Send posts msg now. A disabled or unset webhook is a silent no-op.
func (d *Discord) Send(ctx context.Context, msg Message) error {
	cfg, err := d.settings.Webhook(ctx)
	if err != nil {
		return fmt.Errorf("failed to load webhook settings: %w", err)
	}
	if !cfg.Enabled || cfg.URL == "" {
		return nil
	}

	body, err := jsonx.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// PrayerMessage describes a new prayer request.
func PrayerMessage(p *domain.Prayer) Message {
	name := p.Name
	if name == "" {
		name = "Anonymous"
	}
	visibility := "private"
	if p.IsPublic {
		visibility = "public, awaiting approval"
	}
	return Message{Embeds: []Embed{{
		Title:       "New prayer request",
		Description: truncate(p.Request),
		Color:       colorPrayer,
		Fields: []EmbedField{
			{Name: "From", Value: name, Inline: true},
			{Name: "Visibility", Value: visibility, Inline: true},
		},
		Timestamp: p.CreatedAt.Format(time.RFC3339),
	}}}
}

// TestimonialMessage describes a new testimonial awaiting approval.
func TestimonialMessage(t *domain.Testimonial) Message {
	fields := []EmbedField{{Name: "From", Value: t.Name, Inline: true}}
	if t.Location != "" {
		fields = append(fields, EmbedField{Name: "Location", Value: t.Location, Inline: true})
	}
	return Message{Embeds: []Embed{{
		Title:       "New testimonial",
		Description: truncate(t.Content),
		Color:       colorTestimonial,
		Fields:      fields,
		Timestamp:   t.CreatedAt.Format(time.RFC3339),
	}}}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxFieldLength {
		return s
	}
	return string(r[:maxFieldLength-3]) + "..."
}
