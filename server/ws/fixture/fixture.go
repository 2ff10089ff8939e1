// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gookit/goutil/errorx"
	"github.com/gorilla/websocket"

	"github.com/bloodconnect/bloodconnect/server/ws/internal"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"
)

func NewTestServer(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	processingFunc func(ctx context.Context, w adapters.WSWriter, in []byte),
	extraHTTPHandlers map[string]gin.HandlerFunc,
) *MockService {
	service := newMockService(cfg, processingFunc, extraHTTPHandlers)
	service.server = internal.NewWSServer(service, cfg)
	go service.server.ListenAndServe(ctx, cancel)

	return service
}

func newMockService(cfg *config.Config, processingFunc func(ctx context.Context, w adapters.WSWriter, in []byte), extraHTTPHandlers map[string]gin.HandlerFunc) *MockService {
	return &MockService{
		cfg:               cfg,
		processingFunc:    processingFunc,
		Handlers:          make(map[adapters.WSWriter]struct{}),
		extraHTTPHandlers: extraHTTPHandlers,
	}
}

func (m *MockService) Reset() {
	m.handlersMx.Lock()
	for k := range m.Handlers {
		delete(m.Handlers, k)
	}
	m.ReaderExited.Store(uint64(0))
	m.handlersMx.Unlock()
}

func (m *MockService) Read(ctx context.Context, w internal.WS) {
	defer func() {
		m.ReaderExited.Add(1)
	}()
	for ctx.Err() == nil {
		_, msg, err := w.ReadMessage()
		if err != nil {
			break
		}
		if len(msg) > 0 {
			m.handlersMx.Lock()
			m.Handlers[w] = struct{}{}
			m.handlersMx.Unlock()
			m.processingFunc(ctx, w, msg)
		}
	}
}

func (m *MockService) WriteToAll(messageType int, data []byte) error {
	m.handlersMx.Lock()
	defer m.handlersMx.Unlock()
	for w := range m.Handlers {
		if err := w.WriteMessage(messageType, data); err != nil {
			return errorx.With(err, "failed to write to handler")
		}
	}

	return nil
}

func (m *MockService) RegisterRoutes(_ context.Context, r *internal.Router) {
	r.Any("/", internal.WithWS(m, nil, m.cfg))
	for route, handler := range m.extraHTTPHandlers {
		parts := strings.Split(route, " ")
		method, path := parts[0], parts[1]
		r.Handle(method, path, handler)
	}
}

// NewWebsocketClient dials url and pumps every received frame into Received().
func NewWebsocketClient(ctx context.Context, url string) (Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errorx.Withf(err, "failed to dial %v", url)
	}
	client := &websocketClient{conn: conn, received: make(chan []byte, 1024)}
	go client.readLoop()

	return client, nil
}

func (c *websocketClient) readLoop() {
	defer close(c.received)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.received <- msg
	}
}

func (c *websocketClient) WriteMessage(messageType int, data []byte) error {
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return errorx.With(err, "failed to write message")
	}

	return nil
}

func (c *websocketClient) Received() <-chan []byte {
	return c.received
}

func (c *websocketClient) Close() error {
	c.closeMx.Lock()
	defer c.closeMx.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second)) //nolint:errcheck // Best effort.

	return c.conn.Close()
}
