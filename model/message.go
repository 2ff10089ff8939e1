// SPDX-License-Identifier: ice License 1.0

package model

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

type (
	MessageType string

	// Message is one decoded frame of the broadcast protocol, tagged by MessageType.
	Message interface {
		MessageType() MessageType
	}

	ClientRegister struct {
		UserType    string      `json:"userType" example:"donor"`
		Location    *Location   `json:"location"`
		Preferences Preferences `json:"preferences"`
	}

	Heartbeat struct {
		Timestamp time.Time `json:"timestamp"`
	}

	EmergencyAlert struct {
		BloodGroup  BloodGroup `json:"bloodGroup" example:"O-"`
		PatientName string     `json:"patientName" example:"A. Kumar"`
		Hospital    string     `json:"hospital,omitempty"`
		Location    *Location  `json:"location,omitempty"`
		UnitsNeeded int        `json:"unitsNeeded,omitempty"`
		Contact     string     `json:"contact,omitempty"`
		Message     string     `json:"message,omitempty"`
	}

	WeatherWarning struct {
		Severity Severity        `json:"severity" example:"HIGH"`
		Weather  json.RawMessage `json:"weather,omitempty"`
		Location *Location       `json:"location,omitempty"`
		Message  string          `json:"message"`
	}

	UrgentRequest struct {
		Message string `json:"message"`
	}

	SystemStatus struct {
		ClientID string `json:"clientId"`
		Status   string `json:"status,omitempty"`
	}

	envelope struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
)

const (
	MessageTypeClientRegister MessageType = "CLIENT_REGISTER"
	MessageTypeHeartbeat      MessageType = "HEARTBEAT"
	MessageTypeEmergencyAlert MessageType = "EMERGENCY_ALERT"
	MessageTypeWeatherWarning MessageType = "WEATHER_WARNING"
	MessageTypeUrgentRequest  MessageType = "URGENT_REQUEST"
	MessageTypeSystemStatus   MessageType = "SYSTEM_STATUS"
)

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrParseMessage   = errors.New("parse message")
)

func (*ClientRegister) MessageType() MessageType { return MessageTypeClientRegister }
func (*Heartbeat) MessageType() MessageType      { return MessageTypeHeartbeat }
func (*EmergencyAlert) MessageType() MessageType { return MessageTypeEmergencyAlert }
func (*WeatherWarning) MessageType() MessageType { return MessageTypeWeatherWarning }
func (*UrgentRequest) MessageType() MessageType  { return MessageTypeUrgentRequest }
func (*SystemStatus) MessageType() MessageType   { return MessageTypeSystemStatus }

// ParseMessage decodes one wire frame. The type discriminator is sniffed first,
// the payload is unmarshalled only for the types we know.
func ParseMessage(message []byte) (Message, error) {
	typ := gjson.GetBytes(message, "type")
	if !typ.Exists() {
		return nil, ErrUnknownMessage
	}

	var msg Message
	switch MessageType(typ.Str) {
	case MessageTypeClientRegister:
		msg = &ClientRegister{}
	case MessageTypeHeartbeat:
		msg = &Heartbeat{}
	case MessageTypeEmergencyAlert:
		msg = &EmergencyAlert{}
	case MessageTypeWeatherWarning:
		msg = &WeatherWarning{}
	case MessageTypeUrgentRequest:
		msg = &UrgentRequest{}
	case MessageTypeSystemStatus:
		msg = &SystemStatus{}
	default:
		return nil, errors.Wrapf(ErrUnknownMessage, "type %q", typ.Str)
	}

	data := gjson.GetBytes(message, "data")
	if data.Exists() {
		if err := json.Unmarshal([]byte(data.Raw), msg); err != nil {
			return nil, errors.Wrapf(ErrParseMessage, "malformed %v data: %v", typ.Str, err)
		}
	}

	return msg, nil
}

// MarshalMessage wraps msg into the `{"type":...,"data":...}` envelope.
func MarshalMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %v data", msg.MessageType())
	}
	frame, err := json.Marshal(&envelope{Type: msg.MessageType(), Data: data})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %v envelope", msg.MessageType())
	}

	return frame, nil
}
