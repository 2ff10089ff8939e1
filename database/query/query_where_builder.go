// SPDX-License-Identifier: ice License 1.0

package query

import (
	"strings"
)

func generateDonorsWhereClause(filter *DonorFilter) (clause string, params map[string]any) {
	params = map[string]any{}
	var conditions []string

	if filter == nil {
		return "", params
	}
	if filter.BloodGroup != "" {
		conditions = append(conditions, "blood_group = :blood_group")
		params["blood_group"] = string(filter.BloodGroup)
	}
	if filter.CompatibleWith != "" {
		donors := filter.CompatibleWith.CompatibleDonors()
		placeholders := make([]string, 0, len(donors))
		for i, donor := range donors {
			name := "compat_" + string(rune('a'+i))
			placeholders = append(placeholders, ":"+name)
			params[name] = string(donor)
		}
		conditions = append(conditions, "blood_group in ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.City != "" {
		conditions = append(conditions, "city = :city collate nocase")
		params["city"] = filter.City
	}
	if filter.OnlyAvailable {
		conditions = append(conditions, "available = 1")
	}
	if len(conditions) == 0 {
		return "", params
	}

	return " where " + strings.Join(conditions, " and "), params
}

func generateRequestsWhereClause(filter *RequestFilter) (clause string, params map[string]any) {
	params = map[string]any{}
	var conditions []string

	if filter == nil {
		return "", params
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = :status")
		params["status"] = string(filter.Status)
	}
	if filter.BloodGroup != "" {
		conditions = append(conditions, "blood_group = :blood_group")
		params["blood_group"] = string(filter.BloodGroup)
	}
	if filter.City != "" {
		conditions = append(conditions, "city = :city collate nocase")
		params["city"] = filter.City
	}
	if len(conditions) == 0 {
		return "", params
	}

	return " where " + strings.Join(conditions, " and "), params
}
