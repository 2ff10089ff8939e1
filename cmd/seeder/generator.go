// SPDX-License-Identifier: ice License 1.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/alitto/pond"
	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"
	"pgregory.net/rand"

	"github.com/bloodconnect/bloodconnect/database/query"
	"github.com/bloodconnect/bloodconnect/model"
)

type (
	Generator interface {
		StartSeeding(ctx context.Context)
	}
	generator struct {
		names      namegenerator.NameGenerator
		httpClient *http.Client
		apiURL     string
		donors     int
		requests   int
		threads    int
		direct     bool
	}
)

var seedCities = []struct {
	name     string
	lat, lon float64
}{
	{"Delhi", 28.6139, 77.2090},
	{"Mumbai", 19.0760, 72.8777},
	{"Chennai", 13.0827, 80.2707},
	{"Kolkata", 22.5726, 88.3639},
	{"Bengaluru", 12.9716, 77.5946},
	{"Hyderabad", 17.3850, 78.4867},
	{"Pune", 18.5204, 73.8567},
	{"Jaipur", 26.9124, 75.7873},
}

var seedHospitals = []string{
	"AIIMS", "Apollo", "Fortis", "Max Super Speciality", "Lilavati", "Tata Memorial", "CMC", "Manipal",
}

func NewGenerator(donors, requests, threads int, api, database string) Generator {
	if database != "" {
		query.MustInit(database)
	}

	return &generator{
		names:      namegenerator.NewGenerator(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     api,
		donors:     donors,
		requests:   requests,
		threads:    threads,
		direct:     database != "",
	}
}

func (g *generator) StartSeeding(ctx context.Context) {
	total := g.donors + g.requests
	pool := pond.New(g.threads, total, pond.MinWorkers(g.threads))
	bar := progressbar.Default(int64(total), "seeding")
	var failures uint64
	for i := 0; i < g.donors; i++ {
		pool.Submit(func() {
			defer func() { _ = bar.Add(1) }()
			if err := g.saveDonor(ctx, g.randomDonor()); err != nil {
				atomic.AddUint64(&failures, 1)
				log.Println("WARN on save donor: ", err)
			}
		})
	}
	for i := 0; i < g.requests; i++ {
		pool.Submit(func() {
			defer func() { _ = bar.Add(1) }()
			if err := g.saveRequest(ctx, g.randomRequest()); err != nil {
				atomic.AddUint64(&failures, 1)
				log.Println("WARN on save request: ", err)
			}
		})
	}
	pool.StopAndWait()
	_ = bar.Finish()
	log.Printf("seeded %v donors and %v requests, %v failed", g.donors, g.requests, atomic.LoadUint64(&failures))
}

func (g *generator) randomDonor() *model.Donor {
	groups := model.AllBloodGroups()
	city := seedCities[rand.Intn(len(seedCities))]

	return &model.Donor{
		Name:       g.names.Generate(),
		BloodGroup: groups[rand.Intn(len(groups))],
		City:       city.name,
		Phone:      randomPhone(),
		Location: &model.Location{
			Lat: city.lat + (rand.Float64()-0.5)*0.4,
			Lon: city.lon + (rand.Float64()-0.5)*0.4,
		},
		Available: rand.Intn(100) < 80,
	}
}

func (g *generator) randomRequest() *model.BloodRequest {
	groups := model.AllBloodGroups()
	city := seedCities[rand.Intn(len(seedCities))]
	urgency := model.UrgencyNormal
	if rand.Intn(5) == 0 {
		urgency = model.UrgencyUrgent
	}

	return &model.BloodRequest{
		PatientName: g.names.Generate(),
		BloodGroup:  groups[rand.Intn(len(groups))],
		Units:       1 + rand.Intn(4),
		Hospital:    seedHospitals[rand.Intn(len(seedHospitals))],
		City:        city.name,
		Urgency:     urgency,
		Contact:     randomPhone(),
	}
}

func (g *generator) saveDonor(ctx context.Context, donor *model.Donor) error {
	if g.direct {
		return query.AcceptDonor(ctx, donor)
	}

	return g.post(ctx, "/api/donors", donor)
}

func (g *generator) saveRequest(ctx context.Context, request *model.BloodRequest) error {
	if g.direct {
		return query.AcceptRequest(ctx, request)
	}

	return g.post(ctx, "/api/requests", request)
}

func (g *generator) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize payload for %v", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %v", path)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %v failed", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))

		return errors.Errorf("POST %v returned HTTP %v: %s", path, resp.StatusCode, snippet)
	}

	return nil
}

func randomPhone() string {
	return fmt.Sprintf("+91%010d", rand.Int63n(10_000_000_000))
}
