// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"
	"log"

	"github.com/gookit/goutil/errorx"
	"github.com/spf13/cobra"

	"github.com/bloodconnect/bloodconnect/cfg"
	"github.com/bloodconnect/bloodconnect/database/query"
	"github.com/bloodconnect/bloodconnect/model"
	"github.com/bloodconnect/bloodconnect/server"
	httpserver "github.com/bloodconnect/bloodconnect/server/http"
	wsserver "github.com/bloodconnect/bloodconnect/server/ws"
	"github.com/bloodconnect/bloodconnect/weather"
)

var (
	port         int16
	cert         string
	key          string
	databaseURL  string
	configPath   string
	bloodconnect = &cobra.Command{
		Use:   "bloodconnect",
		Short: "emergency blood donation broadcast relay",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if configPath != "" {
				cfg.MustInit(configPath)
			} else {
				cfg.MustInit()
			}
			config := server.MustGetConfig()
			if port != 0 {
				config.Relay.Port = uint16(port)
			}
			if cert != "" {
				config.Relay.CertPath = cert
			}
			if key != "" {
				config.Relay.KeyPath = key
			}
			if databaseURL != "" {
				query.MustInit(databaseURL)
			} else {
				query.MustInit()
			}
			go weather.New(weather.MustGetConfig(), func(wctx context.Context, warning *model.WeatherWarning) error {
				return wsserver.Broadcast(wctx, warning)
			}).Start(ctx)
			server.ListenAndServe(ctx, cancel, config)
		},
	}
	initFlags = func() {
		bloodconnect.Flags().StringVar(&cert, "cert", "", "path to tls certificate for the http/ws server (TLS)")
		bloodconnect.Flags().StringVar(&key, "key", "", "path to tls certificate key for the http/ws server (TLS)")
		bloodconnect.Flags().Int16Var(&port, "port", 0, "port to communicate with clients (http/websocket)")
		bloodconnect.Flags().StringVar(&databaseURL, "database", "", "sqlite database path, defaults to in-memory")
		bloodconnect.Flags().StringVar(&configPath, "config", "", "path to the application yaml, defaults to /etc/bloodconnect/bloodconnect.yaml")
	}
)

func init() {
	initFlags()
	wsserver.RegisterWSBroadcastListener(func(ctx context.Context, alert *model.Alert) error {
		if err := query.AcceptAlert(ctx, alert); err != nil {
			return errorx.Withf(err, "failed to query.AcceptAlert(%#v)", alert)
		}

		return nil
	})
	httpserver.RegisterAlertPublisher(func(ctx context.Context, msg model.Message) error {
		if err := wsserver.Broadcast(ctx, msg); err != nil {
			return errorx.Withf(err, "failed to wsserver.Broadcast(%v)", msg.MessageType())
		}

		return nil
	})
}

func main() {
	if err := bloodconnect.Execute(); err != nil {
		log.Panic(err)
	}
}
