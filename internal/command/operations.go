package command

import (
	"Studio/internal/entity"
	"context"
	"encoding/json"
	"fmt"
)

// Record appends an entry on behalf of an external writer and announces it on the control channel.
func (r *Router) Record(ctx context.Context, draft entity.ChronicleDraft) entity.ChronicleEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.append(draft)
	r.hub.Publish(entity.ChannelControl, entity.EventChronicleEntry, entry)
	return entry
}

// ModeratorAction records a free-form moderation action taken by principal.
func (r *Router) ModeratorAction(ctx context.Context, principal entity.Principal, action, target string) entity.ChronicleEntry {
	return r.Record(ctx, entity.ChronicleDraft{
		Type:     entity.ChronicleModerator,
		Category: "moderation",
		Action:   action,
		Title:    fmt.Sprintf("Moderator action: %s", action),
		Actor:    principal.DisplayName,
		Target:   target,
	})
}

// Warn records a warning raised by principal.
func (r *Router) Warn(ctx context.Context, principal entity.Principal, title, message string) entity.ChronicleEntry {
	return r.Record(ctx, entity.ChronicleDraft{
		Type:     entity.ChronicleWarning,
		Category: "system",
		Action:   "warning",
		Title:    title,
		Actor:    principal.DisplayName,
		Message:  message,
	})
}

// Alert records an alert and pushes it to the control channel as system:alert.
// Critical alerts are chronicled as danger, anything else as warning.
func (r *Router) Alert(ctx context.Context, principal entity.Principal, severity, title, message string) entity.ChronicleEntry {
	if severity == "" {
		severity = "warning"
	}
	entryType := entity.ChronicleWarning
	if severity == "critical" {
		entryType = entity.ChronicleDanger
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.append(entity.ChronicleDraft{
		Type:     entryType,
		Category: "alert",
		Action:   "alert",
		Title:    title,
		Actor:    principal.DisplayName,
		Message:  message,
		Details:  map[string]interface{}{"severity": severity},
	})
	r.hub.Publish(entity.ChannelControl, entity.EventSystemAlert, entity.SystemAlert{Severity: severity, Title: title, Message: message})
	r.hub.Publish(entity.ChannelControl, entity.EventChronicleEntry, entry)
	return entry
}

// AddGuest puts guest on the roster and chronicles the arrival. actor is whoever reported it.
func (r *Router) AddGuest(ctx context.Context, actor string, guest entity.Guest) []entity.Guest {
	r.mu.Lock()
	defer r.mu.Unlock()
	guests := r.store.AddGuest(guest)
	entry := r.append(entity.ChronicleDraft{
		Type:     entity.ChronicleGuest,
		Category: "guest",
		Action:   "guest_join",
		Title:    fmt.Sprintf("%s joined the studio", guest.Name),
		Actor:    actor,
		Target:   guest.ID,
	})
	r.hub.Publish(entity.ChannelControl, entity.EventMetricsUpdate, r.store.Metrics())
	r.hub.Publish(entity.ChannelControl, entity.EventChronicleEntry, entry)
	r.logger.WithCtx(ctx).Info().Str("guest", guest.ID).Int("guests", len(guests)).Msg("Guest joined")
	return guests
}

// HasGuest reports whether id is on the roster.
func (r *Router) HasGuest(id string) bool {
	for _, g := range r.store.Guests() {
		if g.ID == id {
			return true
		}
	}
	return false
}

// RemoveGuest drops the guest with id. An absent id changes nothing, appends nothing and returns false.
func (r *Router) RemoveGuest(ctx context.Context, actor, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	guest, ok := r.store.RemoveGuest(id)
	if !ok {
		return false
	}
	entry := r.append(entity.ChronicleDraft{
		Type:     entity.ChronicleGuest,
		Category: "guest",
		Action:   "guest_leave",
		Title:    fmt.Sprintf("%s left the studio", guest.Name),
		Actor:    actor,
		Target:   guest.ID,
	})
	r.hub.Publish(entity.ChannelControl, entity.EventMetricsUpdate, r.store.Metrics())
	r.hub.Publish(entity.ChannelControl, entity.EventChronicleEntry, entry)
	r.logger.WithCtx(ctx).Info().Str("guest", guest.ID).Msg("Guest left")
	return true
}

// MergeMetrics applies an externally reported partial metrics update and publishes the result.
// Merges are not chronicled.
func (r *Router) MergeMetrics(ctx context.Context, partial map[string]json.RawMessage) (entity.Metrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics, err := r.store.MergeMetrics(partial)
	if err != nil {
		return entity.Metrics{}, err
	}
	r.hub.Publish(entity.ChannelControl, entity.EventMetricsUpdate, metrics)
	return metrics, nil
}

// IngestMetrics lets a metrics source mutate the live metrics and publishes the result.
func (r *Router) IngestMetrics(mutate func(*entity.Metrics)) entity.Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics := r.store.UpdateMetrics(mutate)
	r.hub.Publish(entity.ChannelControl, entity.EventMetricsUpdate, metrics)
	r.collectors.MetricsTicked()
	return metrics
}
