// SPDX-License-Identifier: ice License 1.0

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloodGroupCompatibility(t *testing.T) {
	t.Parallel()
	for _, recipient := range AllBloodGroups() {
		assert.True(t, BloodGroupONeg.CanDonateTo(recipient), "O- must be the universal donor, failed for %v", recipient)
		assert.True(t, recipient.CanDonateTo(BloodGroupABPos), "AB+ must be the universal recipient, failed for %v", recipient)
	}
	assert.False(t, BloodGroupAPos.CanDonateTo(BloodGroupANeg))
	assert.False(t, BloodGroupAPos.CanDonateTo(BloodGroupBPos))
	assert.False(t, BloodGroupABPos.CanDonateTo(BloodGroupONeg))
	assert.True(t, BloodGroupAPos.CanDonateTo(BloodGroupABPos))
	assert.True(t, BloodGroupBNeg.CanDonateTo(BloodGroupBPos))
}

func TestBloodGroupRhAndAntigenRules(t *testing.T) {
	t.Parallel()
	for _, donor := range AllBloodGroups() {
		for _, recipient := range AllBloodGroups() {
			compatible := donor.CanDonateTo(recipient)
			// Rh-positive cells never go to an Rh-negative recipient.
			if donor[len(donor)-1] == '+' && recipient[len(recipient)-1] == '-' {
				assert.False(t, compatible, "%v -> %v", donor, recipient)
			}
			// A antigen never goes to a recipient without it, same for B.
			if hasAntigen(donor, 'A') && !hasAntigen(recipient, 'A') {
				assert.False(t, compatible, "%v -> %v", donor, recipient)
			}
			if hasAntigen(donor, 'B') && !hasAntigen(recipient, 'B') {
				assert.False(t, compatible, "%v -> %v", donor, recipient)
			}
		}
	}
}

func hasAntigen(bg BloodGroup, antigen byte) bool {
	for i := 0; i < len(bg)-1; i++ {
		if bg[i] == antigen {
			return true
		}
	}

	return false
}

func TestParseBloodGroup(t *testing.T) {
	t.Parallel()
	bg, err := ParseBloodGroup("AB-")
	require.NoError(t, err)
	require.Equal(t, BloodGroupABNeg, bg)

	_, err = ParseBloodGroup("C+")
	require.ErrorIs(t, err, ErrUnknownBloodGroup)
	require.False(t, BloodGroup("").Valid())
}

func TestCompatibleDonorsIsACopy(t *testing.T) {
	t.Parallel()
	donors := BloodGroupOPos.CompatibleDonors()
	require.Equal(t, []BloodGroup{BloodGroupONeg, BloodGroupOPos}, donors)
	donors[0] = "garbage"
	require.Equal(t, []BloodGroup{BloodGroupONeg, BloodGroupOPos}, BloodGroupOPos.CompatibleDonors())
}
