// SPDX-License-Identifier: ice License 1.0

package model

import (
	"github.com/cockroachdb/errors"
)

const (
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
)

var (
	ErrUnknownBloodGroup = errors.New("unknown blood group")

	// Recipient group -> groups whose red cells it can accept.
	compatibleDonors = map[BloodGroup][]BloodGroup{
		BloodGroupONeg:  {BloodGroupONeg},
		BloodGroupOPos:  {BloodGroupONeg, BloodGroupOPos},
		BloodGroupANeg:  {BloodGroupONeg, BloodGroupANeg},
		BloodGroupAPos:  {BloodGroupONeg, BloodGroupOPos, BloodGroupANeg, BloodGroupAPos},
		BloodGroupBNeg:  {BloodGroupONeg, BloodGroupBNeg},
		BloodGroupBPos:  {BloodGroupONeg, BloodGroupOPos, BloodGroupBNeg, BloodGroupBPos},
		BloodGroupABNeg: {BloodGroupONeg, BloodGroupANeg, BloodGroupBNeg, BloodGroupABNeg},
		BloodGroupABPos: {
			BloodGroupONeg, BloodGroupOPos,
			BloodGroupANeg, BloodGroupAPos,
			BloodGroupBNeg, BloodGroupBPos,
			BloodGroupABNeg, BloodGroupABPos,
		},
	}
)

func ParseBloodGroup(value string) (BloodGroup, error) {
	bg := BloodGroup(value)
	if _, found := compatibleDonors[bg]; !found {
		return "", errors.Wrapf(ErrUnknownBloodGroup, "blood group %q", value)
	}

	return bg, nil
}

func (bg BloodGroup) Valid() bool {
	_, found := compatibleDonors[bg]

	return found
}

// CanDonateTo reports whether red cells of group bg are transfusable to the recipient group.
func (bg BloodGroup) CanDonateTo(recipient BloodGroup) bool {
	for _, donor := range compatibleDonors[recipient] {
		if donor == bg {
			return true
		}
	}

	return false
}

// CompatibleDonors lists every group the recipient can accept, universal donor first.
func (bg BloodGroup) CompatibleDonors() []BloodGroup {
	donors := compatibleDonors[bg]
	result := make([]BloodGroup, len(donors))
	copy(result, donors)

	return result
}

func AllBloodGroups() []BloodGroup {
	return []BloodGroup{
		BloodGroupONeg, BloodGroupOPos,
		BloodGroupANeg, BloodGroupAPos,
		BloodGroupBNeg, BloodGroupBPos,
		BloodGroupABNeg, BloodGroupABPos,
	}
}
