// SPDX-License-Identifier: ice License 1.0

package query

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bloodconnect/bloodconnect/model"
)

type (
	DonorFilter struct {
		BloodGroup     model.BloodGroup
		City           string
		CompatibleWith model.BloodGroup // recipient group, selects transfusable donors
		OnlyAvailable  bool
	}

	RequestFilter struct {
		Status     model.RequestStatus
		BloodGroup model.BloodGroup
		City       string
	}

	databaseDonor struct {
		ID         string
		Name       string
		BloodGroup string
		City       string
		Phone      string
		Lat        sql.NullFloat64
		Lon        sql.NullFloat64
		Available  bool
		CreatedAt  int64
	}

	databaseRequest struct {
		ID          string
		PatientName string
		BloodGroup  string
		Units       int
		Hospital    string
		City        string
		Urgency     string
		Status      string
		Reason      string
		Contact     string
		CreatedAt   int64
		DecidedAt   sql.NullInt64
	}

	databaseAlert struct {
		ID          string
		Kind        string
		Payload     string
		PublishedAt int64
	}
)

func (db *dbClient) SaveDonor(ctx context.Context, donor *model.Donor) error {
	if err := donor.Validate(); err != nil {
		return err
	}
	if donor.ID == "" {
		donor.ID = uuid.NewString()
	}
	if donor.CreatedAt.IsZero() {
		donor.CreatedAt = time.Now().UTC()
	}
	const stmt = `insert into donors (id, name, blood_group, city, phone, lat, lon, available, created_at)
values (:id, :name, :blood_group, :city, :phone, :lat, :lon, :available, :created_at)
on conflict (id) do update set
	name = excluded.name,
	blood_group = excluded.blood_group,
	city = excluded.city,
	phone = excluded.phone,
	lat = excluded.lat,
	lon = excluded.lon,
	available = excluded.available`
	_, err := db.exec(ctx, stmt, donorToDatabaseDonor(donor))

	return errors.Wrapf(err, "failed to save donor %+v", donor)
}

func (db *dbClient) SelectDonors(ctx context.Context, filter *DonorFilter) ([]*model.Donor, error) {
	where, params := generateDonorsWhereClause(filter)
	rows, err := db.query(ctx, `select * from donors`+where+` order by created_at desc`, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select donors")
	}
	defer rows.Close()

	var donors []*model.Donor
	for rows.Next() {
		var dbDonor databaseDonor
		if err = rows.StructScan(&dbDonor); err != nil {
			return nil, errors.Wrap(err, "failed to struct scan donor")
		}
		donors = append(donors, dbDonor.toModel())
	}

	return donors, errors.Wrap(rows.Err(), "failed to iterate donors")
}

func (db *dbClient) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	rows, err := db.query(ctx, `select * from donors where id = :id`, map[string]any{"id": id})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select donor %v", id)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, model.ErrNotFound
	}
	var dbDonor databaseDonor
	if err = rows.StructScan(&dbDonor); err != nil {
		return nil, errors.Wrapf(err, "failed to struct scan donor %v", id)
	}

	return dbDonor.toModel(), nil
}

func (db *dbClient) SaveRequest(ctx context.Context, request *model.BloodRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	if request.Status == "" {
		request.Status = model.RequestStatusPending
	}
	const stmt = `insert into requests (id, patient_name, blood_group, units, hospital, city, urgency, status, reason, contact, created_at, decided_at)
values (:id, :patient_name, :blood_group, :units, :hospital, :city, :urgency, :status, :reason, :contact, :created_at, :decided_at)`
	_, err := db.exec(ctx, stmt, requestToDatabaseRequest(request))

	return errors.Wrapf(err, "failed to save request %+v", request)
}

func (db *dbClient) SelectRequests(ctx context.Context, filter *RequestFilter) ([]*model.BloodRequest, error) {
	where, params := generateRequestsWhereClause(filter)
	rows, err := db.query(ctx, `select * from requests`+where+` order by created_at desc`, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select requests")
	}
	defer rows.Close()

	var requests []*model.BloodRequest
	for rows.Next() {
		var dbRequest databaseRequest
		if err = rows.StructScan(&dbRequest); err != nil {
			return nil, errors.Wrap(err, "failed to struct scan request")
		}
		requests = append(requests, dbRequest.toModel())
	}

	return requests, errors.Wrap(rows.Err(), "failed to iterate requests")
}

func (db *dbClient) GetRequest(ctx context.Context, id string) (*model.BloodRequest, error) {
	rows, err := db.query(ctx, `select * from requests where id = :id`, map[string]any{"id": id})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to select request %v", id)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, model.ErrNotFound
	}
	var dbRequest databaseRequest
	if err = rows.StructScan(&dbRequest); err != nil {
		return nil, errors.Wrapf(err, "failed to struct scan request %v", id)
	}

	return dbRequest.toModel(), nil
}

// DecideRequest transitions a pending request to approved/declined. Deciding an
// already decided request fails with model.ErrWrongStatus.
func (db *dbClient) DecideRequest(ctx context.Context, id string, status model.RequestStatus, reason string) (*model.BloodRequest, error) {
	if status != model.RequestStatusApproved && status != model.RequestStatusDeclined {
		return nil, errors.Wrapf(model.ErrInvalidParams, "status %q is not a decision", status)
	}
	rowsAffected, err := db.exec(ctx, `update requests set status = :status, reason = :reason, decided_at = :decided_at
where id = :id and status = 'pending'`, map[string]any{
		"id":         id,
		"status":     string(status),
		"reason":     reason,
		"decided_at": time.Now().UTC().Unix(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decide request %v", id)
	}
	if rowsAffected == 0 {
		if _, err = db.GetRequest(ctx, id); err != nil {
			return nil, err
		}

		return nil, model.ErrWrongStatus
	}

	return db.GetRequest(ctx, id)
}

func (db *dbClient) SaveAlert(ctx context.Context, alert *model.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.PublishedAt.IsZero() {
		alert.PublishedAt = time.Now().UTC()
	}
	_, err := db.exec(ctx, `insert into alerts (id, kind, payload, published_at)
values (:id, :kind, :payload, :published_at)`, map[string]any{
		"id":           alert.ID,
		"kind":         string(alert.Kind),
		"payload":      string(alert.Payload),
		"published_at": alert.PublishedAt.Unix(),
	})

	return errors.Wrapf(err, "failed to journal alert %+v", alert)
}

func (db *dbClient) SelectRecentAlerts(ctx context.Context, limit int64) ([]*model.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.query(ctx, `select * from alerts order by published_at desc, id limit :limit`, map[string]any{"limit": limit})
	if err != nil {
		return nil, errors.Wrap(err, "failed to select alerts")
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		var dbAlert databaseAlert
		if err = rows.StructScan(&dbAlert); err != nil {
			return nil, errors.Wrap(err, "failed to struct scan alert")
		}
		alerts = append(alerts, &model.Alert{
			ID:          dbAlert.ID,
			Kind:        model.MessageType(dbAlert.Kind),
			Payload:     []byte(dbAlert.Payload),
			PublishedAt: time.Unix(dbAlert.PublishedAt, 0).UTC(),
		})
	}

	return alerts, errors.Wrap(rows.Err(), "failed to iterate alerts")
}

func donorToDatabaseDonor(donor *model.Donor) *databaseDonor {
	dbDonor := &databaseDonor{
		ID:         donor.ID,
		Name:       donor.Name,
		BloodGroup: string(donor.BloodGroup),
		City:       donor.City,
		Phone:      donor.Phone,
		Available:  donor.Available,
		CreatedAt:  donor.CreatedAt.Unix(),
	}
	if donor.Location != nil {
		dbDonor.Lat = sql.NullFloat64{Float64: donor.Location.Lat, Valid: true}
		dbDonor.Lon = sql.NullFloat64{Float64: donor.Location.Lon, Valid: true}
	}

	return dbDonor
}

func (dbDonor *databaseDonor) toModel() *model.Donor {
	donor := &model.Donor{
		ID:         dbDonor.ID,
		Name:       dbDonor.Name,
		BloodGroup: model.BloodGroup(dbDonor.BloodGroup),
		City:       dbDonor.City,
		Phone:      dbDonor.Phone,
		Available:  dbDonor.Available,
		CreatedAt:  time.Unix(dbDonor.CreatedAt, 0).UTC(),
	}
	if dbDonor.Lat.Valid && dbDonor.Lon.Valid {
		donor.Location = &model.Location{Lat: dbDonor.Lat.Float64, Lon: dbDonor.Lon.Float64}
	}

	return donor
}

func requestToDatabaseRequest(request *model.BloodRequest) *databaseRequest {
	dbRequest := &databaseRequest{
		ID:          request.ID,
		PatientName: request.PatientName,
		BloodGroup:  string(request.BloodGroup),
		Units:       request.Units,
		Hospital:    request.Hospital,
		City:        request.City,
		Urgency:     string(request.Urgency),
		Status:      string(request.Status),
		Reason:      request.Reason,
		Contact:     request.Contact,
		CreatedAt:   request.CreatedAt.Unix(),
	}
	if request.DecidedAt != nil {
		dbRequest.DecidedAt = sql.NullInt64{Int64: request.DecidedAt.Unix(), Valid: true}
	}

	return dbRequest
}

func (dbRequest *databaseRequest) toModel() *model.BloodRequest {
	request := &model.BloodRequest{
		ID:          dbRequest.ID,
		PatientName: dbRequest.PatientName,
		BloodGroup:  model.BloodGroup(dbRequest.BloodGroup),
		Units:       dbRequest.Units,
		Hospital:    dbRequest.Hospital,
		City:        dbRequest.City,
		Urgency:     model.Urgency(dbRequest.Urgency),
		Status:      model.RequestStatus(dbRequest.Status),
		Reason:      dbRequest.Reason,
		Contact:     dbRequest.Contact,
		CreatedAt:   time.Unix(dbRequest.CreatedAt, 0).UTC(),
	}
	if dbRequest.DecidedAt.Valid {
		decidedAt := time.Unix(dbRequest.DecidedAt.Int64, 0).UTC()
		request.DecidedAt = &decidedAt
	}

	return request
}
