// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"

	"github.com/bloodconnect/bloodconnect/cfg"
	httpserver "github.com/bloodconnect/bloodconnect/server/http"
	wsserver "github.com/bloodconnect/bloodconnect/server/ws"
)

type (
	Config struct {
		Relay wsserver.Config       `yaml:"relay"`
		Auth  httpserver.AuthConfig `yaml:"auth"`
	}
	router struct {
		cfg *Config
	}
)

const applicationYamlKey = "cmd/bloodconnect"

// MustGetConfig loads the daemon section of the application yaml.
func MustGetConfig() *Config {
	return cfg.MustGetKey[Config](applicationYamlKey)
}

func ListenAndServe(ctx context.Context, cancel context.CancelFunc, config *Config) {
	wsserver.New(&config.Relay, &router{cfg: config}).ListenAndServe(ctx, cancel)
}

func (r *router) RegisterRoutes(ctx context.Context, wsroutes *wsserver.Router) {
	api := httpserver.NewAPIHandler(&r.cfg.Auth)
	relay := wsserver.NewHandler(&r.cfg.Relay)
	wsserver.StartJanitor(ctx)
	adminOnly := api.RequireAnyRole(httpserver.RoleAdmin, httpserver.RoleBloodBank)

	wsroutes.Any("/", wsserver.WithWS(relay, httpserver.NewServiceInfoHandler(), &r.cfg.Relay))
	wsroutes.POST("/api/donors", api.CreateDonor())
	wsroutes.GET("/api/donors", api.ListDonors())
	wsroutes.GET("/api/donors/:id", api.GetDonor())
	wsroutes.POST("/api/requests", api.CreateRequest())
	wsroutes.GET("/api/requests", api.ListRequests())
	wsroutes.POST("/api/requests/:id/approve", adminOnly, api.ApproveRequest())
	wsroutes.POST("/api/requests/:id/decline", adminOnly, api.DeclineRequest())
	wsroutes.POST("/api/alerts/emergency", adminOnly, api.PublishEmergency())
	wsroutes.POST("/api/alerts/urgent", adminOnly, api.PublishUrgent())
	wsroutes.GET("/api/alerts/recent", api.RecentAlerts())
}
