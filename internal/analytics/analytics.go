// Package analytics describes click events attached to navigation items and
// formats them into tag-manager dataLayer payloads.
package analytics

import (
	"context"
	"log/slog"
	"strings"
)

// Categories used by the navigation builders.
const (
	CategoryHamburger = "hamburger_navigation"
	CategoryPrimary   = "primary_navigation"
	CategorySecondary = "secondary_navigation"

	EventClick = "event-click"
)

// ComponentEvent is the analytics descriptor carried by a navigation node.
type ComponentEvent struct {
	Action   string `json:"action,omitempty"`
	Category string `json:"category"`
	Label    string `json:"label,omitempty"`
	GUID     string `json:"guid,omitempty"`
	Event    string `json:"event,omitempty"`
	Page     string `json:"page,omitempty"`
}

// Format converts an event into the dataLayer payload shape.
func Format(ev ComponentEvent) map[string]string {
	event := EventClick
	if ev.Event != "" {
		event = CleanData(ev.Event)
	}
	category := ToSnakeCase(StripHTMLTags(RemoveSpecialCharacters(strings.ToLower(ev.Category))))
	return map[string]string{
		"event-action":   CleanData(ev.Action),
		"event-category": category,
		"event-label":    CleanData(ev.Label),
		"guid":           CleanData(ev.GUID),
		"event":          event,
	}
}

// Dispatcher delivers formatted payloads to an analytics sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload map[string]string)
}

// SlogDispatcher writes payloads to a structured logger. It stands in for the
// tag manager outside the browser.
type SlogDispatcher struct {
	log *slog.Logger
}

func NewSlogDispatcher(log *slog.Logger) *SlogDispatcher {
	return &SlogDispatcher{log: log}
}

func (d *SlogDispatcher) Dispatch(ctx context.Context, payload map[string]string) {
	attrs := make([]slog.Attr, 0, len(payload))
	for k, v := range payload {
		attrs = append(attrs, slog.String(k, v))
	}
	d.log.LogAttrs(ctx, slog.LevelInfo, "analytics", attrs...)
}

// Track formats ev and hands it to d.
func Track(ctx context.Context, d Dispatcher, ev ComponentEvent) map[string]string {
	payload := Format(ev)
	if d != nil {
		d.Dispatch(ctx, payload)
	}
	return payload
}
