// SPDX-License-Identifier: ice License 1.0

package client

import (
	"log"

	"github.com/bloodconnect/bloodconnect/model"
)

// dispatch routes one inbound frame. Frames that fail to parse, carry an
// unknown type or are server plumbing (heartbeat echoes) are dropped without
// touching the connection.
func (cl *Client) dispatch(frame []byte) {
	msg, err := model.ParseMessage(frame)
	if err != nil {
		log.Printf("WARN: dropping inbound frame: %v", err)

		return
	}
	switch typedMsg := msg.(type) {
	case *model.EmergencyAlert:
		if pErr := cl.presenter.ShowAlert(typedMsg); pErr != nil {
			log.Printf("WARN: failed to present emergency alert: %v", pErr)
		}
		cl.triggerEvent(EventEmergencyAlert, typedMsg)
	case *model.WeatherWarning:
		if pErr := cl.presenter.ShowWarning(typedMsg); pErr != nil {
			log.Printf("WARN: failed to present weather warning: %v", pErr)
		}
		cl.triggerEvent(EventWeatherWarning, typedMsg)
	case *model.UrgentRequest:
		if pErr := cl.presenter.ShowUrgent(typedMsg); pErr != nil {
			log.Printf("WARN: failed to present urgent request: %v", pErr)
		}
		cl.triggerEvent(EventUrgentRequest, typedMsg)
	case *model.SystemStatus:
		if typedMsg.ClientID != "" {
			cl.mx.Lock()
			cl.clientID = typedMsg.ClientID
			cl.mx.Unlock()
		}
		cl.triggerEvent(EventSystemStatus, typedMsg)
	case *model.Heartbeat:
	default:
		log.Printf("WARN: ignoring unexpected inbound %v message", msg.MessageType())
	}
}
