package model

import (
	"strings"

	"github.com/gookit/goutil/errorx"
)

const (
	maxNameLength     = 100
	maxCityLength     = 80
	maxHospitalLength = 120
	maxUnitsPerOrder  = 20
)

var knownUserTypes = map[string]struct{}{
	"donor":     {},
	"recipient": {},
	"hospital":  {},
	"bloodbank": {},
	"admin":     {},
}

func ValidUserType(userType string) bool {
	_, found := knownUserTypes[userType]

	return found
}

func (d *Donor) Validate() error {
	if strings.TrimSpace(d.Name) == "" || len(d.Name) > maxNameLength {
		return errorx.Withf(ErrInvalidParams, "donor name %q", d.Name)
	}
	if !d.BloodGroup.Valid() {
		return errorx.Withf(ErrInvalidParams, "donor blood group %q", d.BloodGroup)
	}
	if strings.TrimSpace(d.City) == "" || len(d.City) > maxCityLength {
		return errorx.Withf(ErrInvalidParams, "donor city %q", d.City)
	}
	if strings.TrimSpace(d.Phone) == "" {
		return errorx.Withf(ErrInvalidParams, "donor phone is required")
	}
	if d.Location != nil && (d.Location.Lat < -90 || d.Location.Lat > 90 || d.Location.Lon < -180 || d.Location.Lon > 180) {
		return errorx.Withf(ErrInvalidParams, "donor location %+v out of range", d.Location)
	}

	return nil
}

func (r *BloodRequest) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" || len(r.PatientName) > maxNameLength {
		return errorx.Withf(ErrInvalidParams, "patient name %q", r.PatientName)
	}
	if !r.BloodGroup.Valid() {
		return errorx.Withf(ErrInvalidParams, "request blood group %q", r.BloodGroup)
	}
	if r.Units <= 0 || r.Units > maxUnitsPerOrder {
		return errorx.Withf(ErrInvalidParams, "units %v out of range", r.Units)
	}
	if strings.TrimSpace(r.Hospital) == "" || len(r.Hospital) > maxHospitalLength {
		return errorx.Withf(ErrInvalidParams, "hospital %q", r.Hospital)
	}
	if r.Urgency != UrgencyNormal && r.Urgency != UrgencyUrgent {
		return errorx.Withf(ErrInvalidParams, "urgency %q", r.Urgency)
	}
	if strings.TrimSpace(r.Contact) == "" {
		return errorx.Withf(ErrInvalidParams, "contact is required")
	}

	return nil
}
