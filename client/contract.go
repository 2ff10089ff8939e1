// SPDX-License-Identifier: ice License 1.0

package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bloodconnect/bloodconnect/model"
)

type (
	// Registration is what the client announces to the relay on every open.
	Registration = model.ClientRegister

	// Presenter surfaces inbound events to the user. Implementations are
	// best-effort, an error never interrupts dispatch.
	Presenter interface {
		ShowAlert(alert *model.EmergencyAlert) error
		ShowWarning(warning *model.WeatherWarning) error
		ShowUrgent(urgent *model.UrgentRequest) error
	}

	Handler func(data any)

	Option func(*Client)

	ConnectedEvent struct {
		Timestamp time.Time
	}
	DisconnectedEvent struct {
		Code   int
		Reason string
	}
	ErrorEvent struct {
		Kind string
		Err  error
	}

	Client struct {
		serverURL string
		presenter Presenter
		dialer    *websocket.Dialer

		heartbeatInterval    time.Duration
		reconnectInterval    time.Duration
		maxReconnectAttempts int

		mx                sync.Mutex
		conn              *websocket.Conn
		isConnected       bool
		clientID          string
		epoch             uint64
		reconnectAttempts int
		reconnectTimer    *time.Timer
		heartbeatStop     chan struct{}
		registration      Registration
		handlers          map[string][]Handler

		writeMx sync.Mutex
	}
)

const (
	EventConnected      = "connected"
	EventDisconnected   = "disconnected"
	EventError          = "error"
	EventEmergencyAlert = "emergencyAlert"
	EventWeatherWarning = "weatherWarning"
	EventUrgentRequest  = "urgentRequest"
	EventSystemStatus   = "systemStatus"
)

const (
	ErrorKindConnectionFailed = "connection_failed"

	defaultHeartbeatInterval    = 30 * time.Second
	defaultReconnectInterval    = 5 * time.Second
	defaultMaxReconnectAttempts = 10
	// Backoff grows linearly up to this multiple of the reconnect interval.
	backoffCeilingMultiplier = 5
)

var knownEvents = map[string]struct{}{
	EventConnected:      {},
	EventDisconnected:   {},
	EventError:          {},
	EventEmergencyAlert: {},
	EventWeatherWarning: {},
	EventUrgentRequest:  {},
	EventSystemStatus:   {},
}
