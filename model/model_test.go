// SPDX-License-Identifier: ice License 1.0

package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationDistanceKm(t *testing.T) {
	t.Parallel()
	delhi := &Location{Lat: 28.6139, Lon: 77.2090}
	mumbai := &Location{Lat: 19.0760, Lon: 72.8777}
	require.InDelta(t, 1153, delhi.DistanceKm(mumbai), 15)
	require.InDelta(t, 0, delhi.DistanceKm(delhi), 0.001)
	require.True(t, math.IsInf(delhi.DistanceKm(nil), 1))
	require.True(t, math.IsInf((*Location)(nil).DistanceKm(mumbai), 1))
}

func TestPreferencesWantsType(t *testing.T) {
	t.Parallel()
	empty := &Preferences{}
	assert.True(t, empty.WantsType(MessageTypeEmergencyAlert))
	assert.True(t, (*Preferences)(nil).WantsType(MessageTypeWeatherWarning))

	scoped := &Preferences{NotificationTypes: []string{"EMERGENCY_ALERT", "URGENT_REQUEST"}}
	assert.True(t, scoped.WantsType(MessageTypeEmergencyAlert))
	assert.True(t, scoped.WantsType(MessageTypeUrgentRequest))
	assert.False(t, scoped.WantsType(MessageTypeWeatherWarning))
}

func TestPreferencesMerge(t *testing.T) {
	t.Parallel()
	bPos := BloodGroupBPos
	oNeg := BloodGroupONeg
	prefs := Preferences{BloodType: &bPos, NotificationTypes: []string{"EMERGENCY_ALERT"}, Radius: 10}

	prefs.Merge(&Preferences{Radius: 50})
	require.Equal(t, BloodGroupBPos, *prefs.BloodType)
	require.InDelta(t, 50.0, prefs.Radius, 0.001)

	prefs.Merge(&Preferences{BloodType: &oNeg, NotificationTypes: []string{}})
	require.Equal(t, BloodGroupONeg, *prefs.BloodType)
	require.Empty(t, prefs.NotificationTypes)
	require.InDelta(t, 50.0, prefs.Radius, 0.001)

	prefs.Merge(nil)
	require.Equal(t, BloodGroupONeg, *prefs.BloodType)
}

func TestDonorValidate(t *testing.T) {
	t.Parallel()
	donor := Donor{Name: "A. Kumar", BloodGroup: BloodGroupONeg, City: "Delhi", Phone: "+911234567890", CreatedAt: time.Now()}
	require.NoError(t, donor.Validate())

	bad := donor
	bad.BloodGroup = "X+"
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = donor
	bad.Name = "   "
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = donor
	bad.Location = &Location{Lat: 91}
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestBloodRequestValidate(t *testing.T) {
	t.Parallel()
	req := BloodRequest{PatientName: "R. Singh", BloodGroup: BloodGroupAPos, Units: 2, Hospital: "AIIMS", City: "Delhi", Urgency: UrgencyUrgent, Contact: "+911112223334"}
	require.NoError(t, req.Validate())

	bad := req
	bad.Units = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = req
	bad.Units = maxUnitsPerOrder + 1
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = req
	bad.Urgency = "yesterday"
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"LOW", "MEDIUM", "HIGH", "EXTREME"} {
		parsed, err := ParseSeverity(s)
		require.NoError(t, err)
		require.Equal(t, Severity(s), parsed)
	}
	_, err := ParseSeverity("severe")
	require.ErrorIs(t, err, ErrUnknownSeverity)
}
