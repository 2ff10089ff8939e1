// SPDX-License-Identifier: ice License 1.0

package client

import (
	"errors"
	"log"
	stdlibtime "time"

	"github.com/gookit/goutil/errorx"
	"github.com/gorilla/websocket"

	"github.com/bloodconnect/bloodconnect/model"
)

// New builds a disconnected client for the given relay URL. A nil presenter
// falls back to NoopPresenter.
func New(serverURL string, presenter Presenter, opts ...Option) *Client {
	if presenter == nil {
		presenter = new(NoopPresenter)
	}
	cl := &Client{
		serverURL:            serverURL,
		presenter:            presenter,
		dialer:               websocket.DefaultDialer,
		heartbeatInterval:    defaultHeartbeatInterval,
		reconnectInterval:    defaultReconnectInterval,
		maxReconnectAttempts: defaultMaxReconnectAttempts,
		handlers:             make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(cl)
	}

	return cl
}

func WithHeartbeatInterval(interval stdlibtime.Duration) Option {
	return func(cl *Client) { cl.heartbeatInterval = interval }
}

func WithReconnectInterval(interval stdlibtime.Duration) Option {
	return func(cl *Client) { cl.reconnectInterval = interval }
}

func WithMaxReconnectAttempts(attempts int) Option {
	return func(cl *Client) { cl.maxReconnectAttempts = attempts }
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(cl *Client) { cl.dialer = dialer }
}

// Connect stores the registration and starts dialing in the background.
// Calling it while a connection (or a reconnect schedule) is live is a no-op.
func (cl *Client) Connect(registration *Registration) {
	cl.mx.Lock()
	if cl.isConnected || cl.reconnectTimer != nil {
		cl.mx.Unlock()
		log.Printf("WARN: connect ignored, client already active for %v", cl.serverURL)

		return
	}
	if registration != nil {
		cl.registration = *registration
	}
	cl.reconnectAttempts = 0
	cl.epoch++
	epoch := cl.epoch
	cl.mx.Unlock()
	go cl.dial(epoch)
}

// Disconnect tears the connection down and cancels any pending reconnect.
// It is safe to call repeatedly and in any state.
func (cl *Client) Disconnect() {
	cl.mx.Lock()
	cl.epoch++
	cl.reconnectAttempts = cl.maxReconnectAttempts
	if cl.reconnectTimer != nil {
		cl.reconnectTimer.Stop()
		cl.reconnectTimer = nil
	}
	cl.stopHeartbeat()
	wasConnected := cl.isConnected
	cl.isConnected = false
	if cl.conn != nil {
		deadline := stdlibtime.Now().Add(stdlibtime.Second)
		_ = cl.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = cl.conn.Close()
		cl.conn = nil
	}
	cl.mx.Unlock()
	if wasConnected {
		cl.triggerEvent(EventDisconnected, &DisconnectedEvent{Code: websocket.CloseNormalClosure, Reason: "client disconnect"})
	}
}

// UpdatePreferences overlays the given preferences onto the stored
// registration and, if connected, re-registers with the relay so the new
// matching rules take effect without a reconnect.
func (cl *Client) UpdatePreferences(preferences *model.Preferences) error {
	cl.mx.Lock()
	cl.registration.Preferences.Merge(preferences)
	connected := cl.isConnected
	registration := cl.registration
	cl.mx.Unlock()
	if !connected {
		return nil
	}
	if err := cl.send(&registration); err != nil {
		return errorx.Withf(err, "failed to re-register with updated preferences")
	}

	return nil
}

// ClientID returns the relay-assigned identifier, empty until the first
// SYSTEM_STATUS reply arrives.
func (cl *Client) ClientID() string {
	cl.mx.Lock()
	defer cl.mx.Unlock()

	return cl.clientID
}

func (cl *Client) IsConnected() bool {
	cl.mx.Lock()
	defer cl.mx.Unlock()

	return cl.isConnected
}

func (cl *Client) dial(epoch uint64) {
	conn, resp, err := cl.dialer.Dial(cl.serverURL, nil) //nolint:bodyclose // Library closes the body on successful upgrade.
	if resp != nil && resp.Body != nil && err != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		log.Printf("WARN: dial %v failed: %v", cl.serverURL, err)
		cl.handleClose(epoch, websocket.CloseAbnormalClosure, err.Error())

		return
	}
	cl.handleOpen(epoch, conn)
}

func (cl *Client) handleOpen(epoch uint64, conn *websocket.Conn) {
	cl.mx.Lock()
	if epoch != cl.epoch {
		cl.mx.Unlock()
		_ = conn.Close()

		return
	}
	cl.conn = conn
	cl.isConnected = true
	cl.reconnectAttempts = 0
	cl.reconnectTimer = nil
	heartbeatStop := make(chan struct{})
	cl.heartbeatStop = heartbeatStop
	registration := cl.registration
	cl.mx.Unlock()
	// Registration has to reach the relay before the first heartbeat.
	if err := cl.send(&registration); err != nil {
		log.Printf("ERROR: failed to register with %v: %v", cl.serverURL, err)
	}
	go cl.heartbeatLoop(heartbeatStop)
	go cl.readLoop(epoch, conn)
	cl.triggerEvent(EventConnected, &ConnectedEvent{Timestamp: stdlibtime.Now()})
}

func (cl *Client) readLoop(epoch uint64, conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			code, reason := websocket.CloseAbnormalClosure, err.Error()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code, reason = closeErr.Code, closeErr.Text
			}
			cl.handleClose(epoch, code, reason)

			return
		}
		cl.dispatch(frame)
	}
}

func (cl *Client) heartbeatLoop(stop <-chan struct{}) {
	ticker := stdlibtime.NewTicker(cl.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := cl.send(&model.Heartbeat{Timestamp: stdlibtime.Now()}); err != nil {
				log.Printf("WARN: heartbeat to %v failed: %v", cl.serverURL, err)
			}
		}
	}
}

// handleClose is the single place a connection loss funnels into. Calls
// carrying a stale epoch belong to a connection that was already replaced or
// torn down and are dropped.
func (cl *Client) handleClose(epoch uint64, code int, reason string) {
	cl.mx.Lock()
	if epoch != cl.epoch {
		cl.mx.Unlock()

		return
	}
	wasConnected := cl.isConnected
	cl.isConnected = false
	cl.stopHeartbeat()
	if cl.conn != nil {
		_ = cl.conn.Close()
		cl.conn = nil
	}
	cl.mx.Unlock()
	if wasConnected {
		cl.triggerEvent(EventDisconnected, &DisconnectedEvent{Code: code, Reason: reason})
	}
	cl.scheduleReconnect(epoch)
}

func (cl *Client) scheduleReconnect(epoch uint64) {
	cl.mx.Lock()
	if epoch != cl.epoch {
		cl.mx.Unlock()

		return
	}
	if cl.reconnectAttempts >= cl.maxReconnectAttempts {
		cl.reconnectTimer = nil
		cl.mx.Unlock()
		cl.triggerEvent(EventError, &ErrorEvent{
			Kind: ErrorKindConnectionFailed,
			Err:  errorx.Rawf("failed to connect to %v after %v attempts", cl.serverURL, cl.maxReconnectAttempts),
		})

		return
	}
	cl.reconnectAttempts++
	delay := cl.backoffDelay(cl.reconnectAttempts)
	cl.reconnectTimer = stdlibtime.AfterFunc(delay, func() {
		cl.mx.Lock()
		if epoch != cl.epoch {
			cl.mx.Unlock()

			return
		}
		cl.reconnectTimer = nil
		cl.mx.Unlock()
		cl.dial(epoch)
	})
	log.Printf("WARN: connection to %v lost, reconnect attempt %v/%v in %v", cl.serverURL, cl.reconnectAttempts, cl.maxReconnectAttempts, delay)
	cl.mx.Unlock()
}

// backoffDelay grows linearly with the attempt number and flattens out at
// backoffCeilingMultiplier times the base interval.
func (cl *Client) backoffDelay(attempt int) stdlibtime.Duration {
	multiplier := attempt
	if multiplier > backoffCeilingMultiplier {
		multiplier = backoffCeilingMultiplier
	}

	return cl.reconnectInterval * stdlibtime.Duration(multiplier)
}

func (cl *Client) send(msg model.Message) error {
	data, err := model.MarshalMessage(msg)
	if err != nil {
		return errorx.Withf(err, "failed to marshal %v message", msg.MessageType())
	}
	cl.mx.Lock()
	conn, connected := cl.conn, cl.isConnected
	cl.mx.Unlock()
	if !connected || conn == nil {
		return errorx.Rawf("cannot send %v message, not connected", msg.MessageType())
	}
	cl.writeMx.Lock()
	defer cl.writeMx.Unlock()
	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errorx.Withf(err, "failed to write %v message", msg.MessageType())
	}

	return nil
}

func (cl *Client) stopHeartbeat() {
	if cl.heartbeatStop != nil {
		close(cl.heartbeatStop)
		cl.heartbeatStop = nil
	}
}
