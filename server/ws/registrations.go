// SPDX-License-Identifier: ice License 1.0

package ws

import (
	"context"
	"log"
	"time"

	"github.com/gookit/goutil/errorx"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/bloodconnect/bloodconnect/model"
)

func (h *handler) handleRegister(respWriter Writer, reg *model.ClientRegister) error {
	if reg.UserType != "" && !model.ValidUserType(reg.UserType) {
		return errorx.Errorf("invalid: unknown user type %q", reg.UserType)
	}
	if reg.Preferences.BloodType != nil && !reg.Preferences.BloodType.Valid() {
		return errorx.Errorf("invalid: unknown blood type %q", *reg.Preferences.BloodType)
	}

	h.registrationsMx.Lock()
	entry, found := h.registrations[respWriter]
	if !found {
		entry = &registration{ClientID: uuid.NewString()}
		h.registrations[respWriter] = entry
		h.stats.RegisteredClients(1)
	}
	// Re-registration replaces preferences, the client keeps its ID for the
	// lifetime of the connection.
	entry.UserType = reg.UserType
	entry.Location = reg.Location
	entry.Preferences = reg.Preferences
	entry.LastSeen = time.Now()
	clientID := entry.ClientID
	h.registrationsMx.Unlock()

	if err := h.writeMessage(respWriter, &model.SystemStatus{ClientID: clientID, Status: "registered"}); err != nil {
		return errorx.Withf(err, "failed to confirm registration %v", clientID)
	}
	return nil
}

func (h *handler) handleHeartbeat(respWriter Writer, _ *model.Heartbeat) error {
	h.registrationsMx.Lock()
	if entry, found := h.registrations[respWriter]; found {
		entry.LastSeen = time.Now()
	}
	h.registrationsMx.Unlock()

	if err := h.writeMessage(respWriter, &model.Heartbeat{Timestamp: time.Now().UTC()}); err != nil {
		return errorx.With(err, "failed to echo heartbeat")
	}
	return nil
}

func (h *handler) unregister(respWriter Writer) {
	h.registrationsMx.Lock()
	if _, found := h.registrations[respWriter]; found {
		delete(h.registrations, respWriter)
		h.stats.RegisteredClients(-1)
	}
	h.registrationsMx.Unlock()
}

func (h *handler) broadcast(ctx context.Context, msg model.Message) error {
	frame, err := model.MarshalMessage(msg)
	if err != nil {
		return errorx.Withf(err, "failed to serialize broadcast %+v", msg)
	}
	if wsBroadcastListener != nil {
		if err = wsBroadcastListener(ctx, &model.Alert{Kind: msg.MessageType(), Payload: frame, PublishedAt: time.Now().UTC()}); err != nil {
			return errorx.Withf(err, "failed to accept broadcast %+v", msg)
		}
	}

	started := time.Now()
	var delivered, failed int64
	var mErr *multierror.Error
	h.registrationsMx.Lock()
	writers := make([]Writer, 0, len(h.registrations))
	for writer, entry := range h.registrations {
		if entry.matches(msg) {
			writers = append(writers, writer)
		}
	}
	h.registrationsMx.Unlock()
	for _, writer := range writers {
		// A dead subscriber must not abort delivery to the rest.
		if wErr := writer.WriteMessage(textOpCode, frame); wErr != nil {
			failed++
			mErr = multierror.Append(mErr, wErr)
		} else {
			delivered++
		}
	}
	h.stats.BroadcastPublished(msg.MessageType(), delivered, failed, time.Since(started))

	return mErr.ErrorOrNil()
}

func (entry *registration) matches(msg model.Message) bool {
	if !entry.Preferences.WantsType(msg.MessageType()) {
		return false
	}
	switch m := msg.(type) {
	case *model.EmergencyAlert:
		if entry.Preferences.BloodType != nil && m.BloodGroup.Valid() &&
			!entry.Preferences.BloodType.CanDonateTo(m.BloodGroup) {
			return false
		}
		return entry.withinRadius(m.Location)
	case *model.WeatherWarning:
		return entry.withinRadius(m.Location)
	default:
		return true
	}
}

// withinRadius passes unless both sides carry coordinates and a radius is set.
func (entry *registration) withinRadius(location *model.Location) bool {
	if entry.Location == nil || location == nil || entry.Preferences.Radius <= 0 {
		return true
	}

	return entry.Location.DistanceKm(location) <= entry.Preferences.Radius
}

func (h *handler) evictIdleLoop(ctx context.Context) {
	if h.cfg.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(h.cfg.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := h.evictIdle(h.cfg.IdleTimeout); evicted > 0 {
				log.Printf("evicted %v idle subscriber(s)", evicted)
			}
		}
	}
}

func (h *handler) evictIdle(olderThan time.Duration) int {
	deadline := time.Now().Add(-olderThan)
	var idle []Writer
	h.registrationsMx.Lock()
	for writer, entry := range h.registrations {
		if entry.LastSeen.Before(deadline) {
			idle = append(idle, writer)
			delete(h.registrations, writer)
			h.stats.RegisteredClients(-1)
		}
	}
	h.registrationsMx.Unlock()
	for _, writer := range idle {
		if err := writer.Close(); err != nil {
			log.Printf("WARN: failed to close idle subscriber: %v", err)
		}
	}

	return len(idle)
}
