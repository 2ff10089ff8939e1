// SPDX-License-Identifier: ice License 1.0

package model

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
)

type (
	BloodGroup    string
	Severity      string
	RequestStatus string
	Urgency       string

	Location struct {
		Lat float64 `json:"lat" example:"28.6139"`
		Lon float64 `json:"lon" example:"77.2090"`
	}

	Preferences struct {
		BloodType         *BloodGroup `json:"bloodType"`
		NotificationTypes []string    `json:"notificationTypes"`
		Radius            float64     `json:"radius"`
	}

	Donor struct {
		ID         string     `json:"id"`
		Name       string     `json:"name" example:"A. Kumar"`
		BloodGroup BloodGroup `json:"bloodGroup" example:"O-"`
		City       string     `json:"city" example:"Delhi"`
		Phone      string     `json:"phone" example:"+911234567890"`
		Location   *Location  `json:"location,omitempty"`
		Available  bool       `json:"available"`
		CreatedAt  time.Time  `json:"createdAt"`
	}

	BloodRequest struct {
		ID          string        `json:"id"`
		PatientName string        `json:"patientName"`
		BloodGroup  BloodGroup    `json:"bloodGroup"`
		Units       int           `json:"units"`
		Hospital    string        `json:"hospital"`
		City        string        `json:"city"`
		Urgency     Urgency       `json:"urgency"`
		Status      RequestStatus `json:"status"`
		Reason      string        `json:"reason,omitempty"`
		Contact     string        `json:"contact"`
		CreatedAt   time.Time     `json:"createdAt"`
		DecidedAt   *time.Time    `json:"decidedAt,omitempty"`
	}

	Alert struct {
		ID          string      `json:"id"`
		Kind        MessageType `json:"kind"`
		Payload     []byte      `json:"payload"`
		PublishedAt time.Time   `json:"publishedAt"`
	}
)

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDeclined RequestStatus = "declined"
)

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

const (
	SeverityLow     Severity = "LOW"
	SeverityMedium  Severity = "MEDIUM"
	SeverityHigh    Severity = "HIGH"
	SeverityExtreme Severity = "EXTREME"
)

var (
	ErrDuplicate       = errors.New("duplicate")
	ErrNotFound        = errors.New("not found")
	ErrWrongStatus     = errors.New("wrong request status")
	ErrInvalidParams   = errors.New("invalid params")
	ErrUnknownSeverity = errors.New("unknown severity")
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two coordinates (haversine).
func (l *Location) DistanceKm(other *Location) float64 {
	if l == nil || other == nil {
		return math.Inf(1)
	}
	lat1, lon1 := l.Lat*math.Pi/180, l.Lon*math.Pi/180
	lat2, lon2 := other.Lat*math.Pi/180, other.Lon*math.Pi/180
	dLat, dLon := lat2-lat1, lon2-lon1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func (p *Preferences) WantsType(typ MessageType) bool {
	if p == nil || len(p.NotificationTypes) == 0 {
		return true
	}
	for _, t := range p.NotificationTypes {
		if t == string(typ) {
			return true
		}
	}

	return false
}

// Merge overlays the non-zero fields of other on top of p.
func (p *Preferences) Merge(other *Preferences) {
	if other == nil {
		return
	}
	if other.BloodType != nil {
		p.BloodType = other.BloodType
	}
	if other.NotificationTypes != nil {
		p.NotificationTypes = other.NotificationTypes
	}
	if other.Radius > 0 {
		p.Radius = other.Radius
	}
}

func ParseSeverity(value string) (Severity, error) {
	switch Severity(value) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityExtreme:
		return Severity(value), nil
	}

	return "", errors.Wrapf(ErrUnknownSeverity, "severity %q", value)
}
