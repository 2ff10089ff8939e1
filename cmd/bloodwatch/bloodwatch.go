// SPDX-License-Identifier: ice License 1.0

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/bloodconnect/bloodconnect/client"
	"github.com/bloodconnect/bloodconnect/model"
)

var (
	serverURL         string
	userType          string
	bloodType         string
	lat               float64
	lon               float64
	radius            float64
	notificationTypes []string
	bloodwatch        = &cobra.Command{
		Use:   "bloodwatch",
		Short: "terminal subscriber for the bloodconnect relay",
		Run: func(cmd *cobra.Command, args []string) {
			cl := client.New(serverURL, new(terminalPresenter))
			cl.On(client.EventConnected, func(any) {
				color.Green.Printf("connected to %v\n", serverURL)
			})
			cl.On(client.EventDisconnected, func(data any) {
				event := data.(*client.DisconnectedEvent)
				color.Yellow.Printf("disconnected (%v): %v\n", event.Code, event.Reason)
			})
			cl.On(client.EventError, func(data any) {
				event := data.(*client.ErrorEvent)
				color.Red.Printf("%v: %v\n", event.Kind, event.Err)
			})
			cl.On(client.EventSystemStatus, func(data any) {
				status := data.(*model.SystemStatus)
				log.Printf("relay status %q, client id %v", status.Status, status.ClientID)
			})
			cl.Connect(buildRegistration())
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			cl.Disconnect()
		},
	}
	initFlags = func() {
		bloodwatch.Flags().StringVar(&serverURL, "server", "ws://localhost:9890/", "relay websocket url")
		bloodwatch.Flags().StringVar(&userType, "user-type", "donor", "donor | recipient | hospital | bloodbank | admin")
		bloodwatch.Flags().StringVar(&bloodType, "blood-type", "", "subscriber blood group, e.g. O-")
		bloodwatch.Flags().Float64Var(&lat, "lat", 0, "subscriber latitude")
		bloodwatch.Flags().Float64Var(&lon, "lon", 0, "subscriber longitude")
		bloodwatch.Flags().Float64Var(&radius, "radius", 0, "alert radius in km, 0 disables the distance filter")
		bloodwatch.Flags().StringSliceVar(&notificationTypes, "notification-types", nil, "message types to subscribe to, empty means everything")
	}
)

func init() {
	initFlags()
}

func buildRegistration() *client.Registration {
	registration := &client.Registration{
		UserType: userType,
		Preferences: model.Preferences{
			NotificationTypes: notificationTypes,
			Radius:            radius,
		},
	}
	if bloodType != "" {
		group, err := model.ParseBloodGroup(bloodType)
		if err != nil {
			log.Panic(err)
		}
		registration.Preferences.BloodType = &group
	}
	if lat != 0 || lon != 0 {
		registration.Location = &model.Location{Lat: lat, Lon: lon}
	}

	return registration
}

func main() {
	if err := bloodwatch.Execute(); err != nil {
		log.Panic(err)
	}
}
