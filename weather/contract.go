// SPDX-License-Identifier: ice License 1.0

package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	stdlibtime "time"

	"github.com/bloodconnect/bloodconnect/model"
)

type (
	// Publish forwards one normalized warning to the relay.
	Publish func(ctx context.Context, warning *model.WeatherWarning) error

	Config struct {
		FeedURL      string              `yaml:"feedUrl"`
		UserAgent    string              `yaml:"userAgent"`
		PollInterval stdlibtime.Duration `yaml:"pollInterval"`
	}

	Watcher struct {
		cfg        *Config
		httpClient *http.Client
		publish    Publish
		seenMx     sync.Mutex
		seen       map[string]stdlibtime.Time
	}

	feedPage struct {
		Features []feedFeature `json:"features"`
	}
	feedFeature struct {
		Geometry   *feedGeometry  `json:"geometry"`
		Properties feedProperties `json:"properties"`
	}
	feedGeometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	feedProperties struct {
		ID          string `json:"id"`
		Event       string `json:"event"`
		Description string `json:"description"`
		AreaDesc    string `json:"areaDesc"`
		Severity    string `json:"severity"`
		Status      string `json:"status"`
		Expires     string `json:"expires"`
	}
)

const (
	defaultPollInterval = stdlibtime.Minute
	defaultUserAgent    = "bloodconnect-watcher/1.0"
	fetchTimeout        = 15 * stdlibtime.Second
	// Seen feed IDs older than this are forgotten, bounding the dedupe table.
	seenRetention = 6 * stdlibtime.Hour
)
