// SPDX-License-Identifier: ice License 1.0

package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/bloodconnect/model"
)

func TestGenerateDonorsWhereClause(t *testing.T) {
	t.Parallel()

	clause, params := generateDonorsWhereClause(nil)
	require.Empty(t, clause)
	require.Empty(t, params)

	clause, params = generateDonorsWhereClause(&DonorFilter{})
	require.Empty(t, clause)
	require.Empty(t, params)

	clause, params = generateDonorsWhereClause(&DonorFilter{BloodGroup: model.BloodGroupONeg, City: "Delhi", OnlyAvailable: true})
	require.Equal(t, " where blood_group = :blood_group and city = :city collate nocase and available = 1", clause)
	require.Equal(t, map[string]any{"blood_group": "O-", "city": "Delhi"}, params)

	clause, params = generateDonorsWhereClause(&DonorFilter{CompatibleWith: model.BloodGroupOPos})
	require.Equal(t, " where blood_group in (:compat_a, :compat_b)", clause)
	require.Equal(t, map[string]any{"compat_a": "O-", "compat_b": "O+"}, params)
}

func TestGenerateRequestsWhereClause(t *testing.T) {
	t.Parallel()

	clause, params := generateRequestsWhereClause(&RequestFilter{Status: model.RequestStatusPending, BloodGroup: model.BloodGroupABPos})
	require.Equal(t, " where status = :status and blood_group = :blood_group", clause)
	require.Equal(t, map[string]any{"status": "pending", "blood_group": "AB+"}, params)

	clause, params = generateRequestsWhereClause(nil)
	require.Empty(t, clause)
	require.Empty(t, params)
}
