// SPDX-License-Identifier: ice License 1.0

// Package weather polls a severe-weather alert feed and turns new warnings
// into relay broadcasts.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	stdlibtime "time"

	"github.com/gookit/goutil/errorx"

	"github.com/bloodconnect/bloodconnect/cfg"
	"github.com/bloodconnect/bloodconnect/model"
)

func MustGetConfig() *Config {
	return cfg.MustGetKey[Config]("weather")
}

// New builds a watcher. A watcher with an empty feed URL is valid and does
// nothing when started.
func New(config *Config, publish Publish) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	return &Watcher{
		cfg:        config,
		httpClient: &http.Client{Timeout: fetchTimeout},
		publish:    publish,
		seen:       make(map[string]stdlibtime.Time),
	}
}

// Start blocks polling the feed until ctx is cancelled. One failed poll logs
// and waits for the next tick.
func (w *Watcher) Start(ctx context.Context) {
	if w.cfg.FeedURL == "" {
		log.Printf("WARN: weather watcher disabled, no feed url configured")

		return
	}
	log.Printf("polling weather feed %v every %v", w.cfg.FeedURL, w.cfg.PollInterval)
	ticker := stdlibtime.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	// The first poll waits a full interval so the relay is accepting
	// subscribers before anything gets published.
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := w.pollOnce(ctx); err != nil {
			log.Printf("ERROR: weather poll failed: %v", err)
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) error {
	page, err := w.fetchFeed(ctx)
	if err != nil {
		return errorx.Withf(err, "failed to fetch %v", w.cfg.FeedURL)
	}
	now := stdlibtime.Now()
	w.pruneSeen(now)
	for ix := range page.Features {
		feature := &page.Features[ix]
		if feature.Properties.ID == "" || !w.markSeen(feature.Properties.ID, now) {
			continue
		}
		warning, wErr := warningFor(feature)
		if wErr != nil {
			log.Printf("WARN: skipping feed alert %v: %v", feature.Properties.ID, wErr)

			continue
		}
		if pErr := w.publish(ctx, warning); pErr != nil {
			log.Printf("ERROR: failed to publish weather warning %v: %v", feature.Properties.ID, pErr)
			w.unmarkSeen(feature.Properties.ID)
		}
	}

	return nil
}

func (w *Watcher) fetchFeed(ctx context.Context) (*feedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.FeedURL, http.NoBody)
	if err != nil {
		return nil, errorx.Withf(err, "failed to build feed request")
	}
	req.Header.Set("User-Agent", w.cfg.UserAgent)
	req.Header.Set("Accept", "application/geo+json")
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, errorx.Withf(err, "feed request failed")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errorx.Withf(err, "failed to read feed body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Rawf("feed returned HTTP %v", resp.StatusCode)
	}
	var page feedPage
	if err = json.Unmarshal(body, &page); err != nil {
		return nil, errorx.Withf(err, "malformed feed payload")
	}

	return &page, nil
}

// markSeen returns true exactly once per feed ID within the retention window.
func (w *Watcher) markSeen(id string, now stdlibtime.Time) bool {
	w.seenMx.Lock()
	defer w.seenMx.Unlock()
	if _, ok := w.seen[id]; ok {
		return false
	}
	w.seen[id] = now

	return true
}

// unmarkSeen forgets an ID whose warning never reached the relay so the next
// poll retries it.
func (w *Watcher) unmarkSeen(id string) {
	w.seenMx.Lock()
	defer w.seenMx.Unlock()
	delete(w.seen, id)
}

func (w *Watcher) pruneSeen(now stdlibtime.Time) {
	w.seenMx.Lock()
	defer w.seenMx.Unlock()
	for id, at := range w.seen {
		if now.Sub(at) > seenRetention {
			delete(w.seen, id)
		}
	}
}

func warningFor(feature *feedFeature) (*model.WeatherWarning, error) {
	props := &feature.Properties
	if props.Status != "" && !strings.EqualFold(props.Status, "actual") {
		return nil, errorx.Rawf("status %q is not actionable", props.Status)
	}
	if props.Expires != "" {
		if expires, err := stdlibtime.Parse(stdlibtime.RFC3339, props.Expires); err == nil && expires.Before(stdlibtime.Now()) {
			return nil, errorx.Raw("already expired")
		}
	}
	severity, err := normalizeSeverity(props.Severity)
	if err != nil {
		return nil, err
	}
	details, err := json.Marshal(props)
	if err != nil {
		return nil, errorx.Withf(err, "failed to serialize alert properties")
	}

	return &model.WeatherWarning{
		Severity: severity,
		Weather:  details,
		Location: locationOf(feature.Geometry),
		Message:  fmt.Sprintf("%v: %v", props.Event, props.AreaDesc),
	}, nil
}

// normalizeSeverity maps the feed's CAP severity scale onto the wire protocol's.
func normalizeSeverity(value string) (model.Severity, error) {
	switch strings.ToLower(value) {
	case "extreme":
		return model.SeverityExtreme, nil
	case "severe":
		return model.SeverityHigh, nil
	case "moderate":
		return model.SeverityMedium, nil
	case "minor", "unknown", "":
		return model.SeverityLow, nil
	}

	return "", errorx.Withf(model.ErrUnknownSeverity, "feed severity %q", value)
}

// locationOf extracts the first vertex of the alert polygon, which is enough
// for the relay's radius match.
func locationOf(geometry *feedGeometry) *model.Location {
	if geometry == nil {
		return nil
	}
	var coords json.RawMessage
	switch geometry.Type {
	case "Polygon":
		coords = geometry.Coordinates
	case "MultiPolygon":
		var polygons []json.RawMessage
		if err := json.Unmarshal(geometry.Coordinates, &polygons); err != nil || len(polygons) == 0 {
			return nil
		}
		coords = polygons[0]
	default:
		return nil
	}
	var rings [][][]float64
	if err := json.Unmarshal(coords, &rings); err != nil || len(rings) == 0 || len(rings[0]) == 0 || len(rings[0][0]) < 2 {
		return nil
	}
	vertex := rings[0][0]

	return &model.Location{Lat: vertex[1], Lon: vertex[0]}
}
