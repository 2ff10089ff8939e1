package query

import (
	"context"
	"sync"

	"github.com/bloodconnect/bloodconnect/model"
)

var (
	globalDB struct {
		Client *dbClient
		Once   sync.Once
	}
)

func MustInit(url ...string) {
	target := ":memory:"

	if len(url) > 0 {
		target = url[0]
	}

	globalDB.Once.Do(func() {
		globalDB.Client = openDatabase(target, true)
	})
}

func AcceptDonor(ctx context.Context, donor *model.Donor) error {
	return globalDB.Client.SaveDonor(ctx, donor)
}

func GetDonors(ctx context.Context, filter *DonorFilter) ([]*model.Donor, error) {
	return globalDB.Client.SelectDonors(ctx, filter)
}

func GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	return globalDB.Client.GetDonor(ctx, id)
}

func AcceptRequest(ctx context.Context, request *model.BloodRequest) error {
	return globalDB.Client.SaveRequest(ctx, request)
}

func GetRequests(ctx context.Context, filter *RequestFilter) ([]*model.BloodRequest, error) {
	return globalDB.Client.SelectRequests(ctx, filter)
}

func GetRequest(ctx context.Context, id string) (*model.BloodRequest, error) {
	return globalDB.Client.GetRequest(ctx, id)
}

func DecideRequest(ctx context.Context, id string, status model.RequestStatus, reason string) (*model.BloodRequest, error) {
	return globalDB.Client.DecideRequest(ctx, id, status, reason)
}

func AcceptAlert(ctx context.Context, alert *model.Alert) error {
	return globalDB.Client.SaveAlert(ctx, alert)
}

func GetRecentAlerts(ctx context.Context, limit int64) ([]*model.Alert, error) {
	return globalDB.Client.SelectRecentAlerts(ctx, limit)
}
