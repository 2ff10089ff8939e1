// SPDX-License-Identifier: ice License 1.0

package internal

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"
)

type (
	Router = gin.Engine
	Server interface {
		// ListenAndServe starts everything and blocks until ctx is done or a signal arrives.
		ListenAndServe(ctx context.Context, cancel context.CancelFunc)
	}
	RegisterRoutes interface {
		RegisterRoutes(ctx context.Context, router *Router)
	}

	WSHandler = adapters.WSHandler
	WS        = adapters.WS
)

type (
	srv struct {
		cfg         *config.Config
		router      *Router
		server      *http.Server
		quit        chan<- os.Signal
		routesSetup RegisterRoutes
	}
)
