// SPDX-License-Identifier: ice License 1.0

package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/bloodconnect/bloodconnect/model"
)

type (
	ServiceInformationDocument struct {
		Name                  string              `json:"name"`
		Description           string              `json:"description"`
		Contact               string              `json:"contact"`
		Software              string              `json:"software"`
		Version               string              `json:"version"`
		SupportedMessageTypes []model.MessageType `json:"supportedMessageTypes"`
		Limitation            *LimitationDocument `json:"limitation,omitempty"`
	}
	LimitationDocument struct {
		MaxUnitsPerRequest    int     `json:"maxUnitsPerRequest"`
		HeartbeatPeriodSecs   int     `json:"heartbeatPeriodSeconds"`
		MaxNotificationRadius float64 `json:"maxNotificationRadiusKm"`
	}
	infoHandler struct{}
)

const serviceInfoContentType = "application/bloodconnect+json"

func NewServiceInfoHandler() http.Handler {
	return &infoHandler{}
}

func (*infoHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	if req.Header.Get("Accept") != serviceInfoContentType {
		writer.WriteHeader(http.StatusBadRequest)
		return
	}
	writer.Header().Add("Content-Type", "application/json")
	info := info()
	bytes, err := json.Marshal(info)
	if err != nil {
		err = errors.Wrapf(err, "failed to serialize service info json %+v", info)
		log.Printf("ERROR:%v", err)
	}
	writer.Write(bytes)
}

func info() ServiceInformationDocument {
	return ServiceInformationDocument{
		Name:        "bloodconnect",
		Description: "blood donor / recipient matchmaking and emergency broadcast relay",
		Contact:     "~",
		Software:    "bloodconnect",
		Version:     "1.0.0",
		SupportedMessageTypes: []model.MessageType{
			model.MessageTypeClientRegister,
			model.MessageTypeHeartbeat,
			model.MessageTypeEmergencyAlert,
			model.MessageTypeWeatherWarning,
			model.MessageTypeUrgentRequest,
			model.MessageTypeSystemStatus,
		},
		Limitation: &LimitationDocument{
			MaxUnitsPerRequest:    20,
			HeartbeatPeriodSecs:   30,
			MaxNotificationRadius: 500,
		},
	}
}
