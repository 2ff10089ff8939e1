// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bloodconnect/bloodconnect/server/ws/internal"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"
)

type (
	Client interface {
		WriteMessage(messageType int, data []byte) error
		Received() <-chan []byte
		Close() error
	}

	MockService struct {
		server            internal.Server
		processingFunc    func(ctx context.Context, w adapters.WSWriter, in []byte)
		handlersMx        sync.Mutex
		Handlers          map[adapters.WSWriter]struct{}
		ReaderExited      atomic.Uint64
		extraHTTPHandlers map[string]gin.HandlerFunc
		cfg               *config.Config
	}

	websocketClient struct {
		conn     *websocket.Conn
		received chan []byte
		closeMx  sync.Mutex
		closed   bool
	}
)
