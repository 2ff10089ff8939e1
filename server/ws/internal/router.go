// SPDX-License-Identifier: ice License 1.0

package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gookit/goutil/errorx"

	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"

	"log"
)

func NewRouter(cfg *config.Config) *Router {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	return router
}

// WithWS upgrades websocket requests and spawns the read/write loops for the
// connection; anything else falls through to httpHandler.
func WithWS(wsHandler WSHandler, httpHandler http.Handler, cfg *config.Config) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		if ginCtx.GetHeader("Upgrade") != "" {
			conn, _, _, err := ws.UpgradeHTTP(ginCtx.Request, ginCtx.Writer)
			if err != nil {
				log.Printf("ERROR:%v", errorx.Withf(err, "upgrading failed (%v)", ginCtx.Request.Proto))
				ginCtx.Writer.WriteHeader(http.StatusBadRequest)

				return
			}
			wsocket, ctx := adapters.NewWebsocketAdapter(ginCtx.Request.Context(), conn, cfg.ReadTimeout, cfg.WriteTimeout)
			go func() {
				defer func() {
					if clErr := wsocket.Close(); clErr != nil {
						log.Printf("ERROR:%v", errorx.With(clErr, "failed to close websocket conn"))
					}
				}()
				go wsocket.Write(ctx)
				wsHandler.Read(ctx, wsocket)
			}()

			return
		}
		if httpHandler != nil {
			httpHandler.ServeHTTP(ginCtx.Writer, ginCtx.Request)

			return
		}
		ginCtx.Writer.WriteHeader(http.StatusMethodNotAllowed)
	}
}
