// SPDX-License-Identifier: ice License 1.0

package ws

import (
	"sync"
	"time"

	"github.com/bloodconnect/bloodconnect/model"
	"github.com/bloodconnect/bloodconnect/server/ws/internal"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"
)

type (
	Writer = adapters.WSWriter
	Config = config.Config
	Router = internal.Router
)

var WithWS = internal.WithWS

type (
	handler struct {
		cfg             *Config
		stats           Statistics
		registrationsMx sync.Mutex
		registrations   map[adapters.WSWriter]*registration
	}

	// registration is one connected subscriber and its fan-out preferences.
	registration struct {
		ClientID    string
		UserType    string
		Location    *model.Location
		Preferences model.Preferences
		LastSeen    time.Time
	}
)
