// SPDX-License-Identifier: ice License 1.0

package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	combinations "github.com/mxschmitt/golang-combinations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/bloodconnect/model"
)

type fakeWriter struct {
	mx         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     bool
}

func (f *fakeWriter) WriteMessage(_ int, data []byte) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.failWrites {
		return errors.New("subscriber is gone")
	}
	f.frames = append(f.frames, append([]byte(nil), data...))

	return nil
}

func (f *fakeWriter) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.closed = true

	return nil
}

func (f *fakeWriter) lastMessage(t *testing.T) model.Message {
	t.Helper()
	f.mx.Lock()
	defer f.mx.Unlock()
	require.NotEmpty(t, f.frames)
	msg, err := model.ParseMessage(f.frames[len(f.frames)-1])
	require.NoError(t, err)

	return msg
}

func (f *fakeWriter) frameCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()

	return len(f.frames)
}

func helperNewHandler() *handler {
	return &handler{
		cfg:           &Config{IdleTimeout: time.Minute},
		stats:         NewStatistics(false),
		registrations: make(map[Writer]*registration),
	}
}

func TestRegisterAssignsStableClientID(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	w := new(fakeWriter)

	require.NoError(t, h.handleRegister(w, &model.ClientRegister{UserType: "donor"}))
	first, ok := w.lastMessage(t).(*model.SystemStatus)
	require.True(t, ok)
	require.NotEmpty(t, first.ClientID)
	require.Equal(t, "registered", first.Status)

	bPos := model.BloodGroupBPos
	require.NoError(t, h.handleRegister(w, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{BloodType: &bPos}}))
	second := w.lastMessage(t).(*model.SystemStatus)
	require.Equal(t, first.ClientID, second.ClientID, "re-registration must keep the client id")

	require.NotNil(t, h.registrations[w].Preferences.BloodType)
}

func TestRegisterRejectsGarbage(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	w := new(fakeWriter)

	require.Error(t, h.handleRegister(w, &model.ClientRegister{UserType: "alien"}))
	bad := model.BloodGroup("Z-")
	require.Error(t, h.handleRegister(w, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{BloodType: &bad}}))
	require.Empty(t, h.registrations)
}

func TestHeartbeatEchoesAndTouches(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	w := new(fakeWriter)
	require.NoError(t, h.handleRegister(w, &model.ClientRegister{UserType: "donor"}))
	before := h.registrations[w].LastSeen

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, h.handleHeartbeat(w, &model.Heartbeat{Timestamp: time.Now()}))
	_, ok := w.lastMessage(t).(*model.Heartbeat)
	require.True(t, ok)
	require.True(t, h.registrations[w].LastSeen.After(before))
}

func TestHandleUnknownTypeAnswersWithoutDropping(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	w := new(fakeWriter)

	h.Handle(context.Background(), w, []byte(`{"type":"FLYING_SAUCER","data":{}}`))
	status, ok := w.lastMessage(t).(*model.SystemStatus)
	require.True(t, ok)
	require.Contains(t, status.Status, "error")

	h.Handle(context.Background(), w, []byte(`this is not json`))
	status = w.lastMessage(t).(*model.SystemStatus)
	require.Contains(t, status.Status, "error")
}

func TestBroadcastHonorsNotificationTypePreferences(t *testing.T) {
	t.Parallel()
	allTypes := []string{"EMERGENCY_ALERT", "WEATHER_WARNING", "URGENT_REQUEST"}
	messages := map[string]model.Message{
		"EMERGENCY_ALERT": &model.EmergencyAlert{BloodGroup: model.BloodGroupONeg, PatientName: "A. Kumar"},
		"WEATHER_WARNING": &model.WeatherWarning{Severity: model.SeverityHigh, Message: "storm"},
		"URGENT_REQUEST":  &model.UrgentRequest{Message: "need platelets"},
	}

	subsets := combinations.All(allTypes)
	subsets = append(subsets, nil) // empty set subscribes to everything
	for _, subset := range subsets {
		h := helperNewHandler()
		w := new(fakeWriter)
		require.NoError(t, h.handleRegister(w, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{NotificationTypes: subset}}))

		for typeName, msg := range messages {
			before := w.frameCount()
			require.NoError(t, h.broadcast(context.Background(), msg))
			delivered := w.frameCount() > before
			wants := len(subset) == 0
			for _, s := range subset {
				if s == typeName {
					wants = true
				}
			}
			assert.Equal(t, wants, delivered, "subset %v type %v", subset, typeName)
		}
	}
}

func TestBroadcastBloodCompatibility(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	alert := &model.EmergencyAlert{BloodGroup: model.BloodGroupBNeg, PatientName: "R. Singh"}

	bPos := model.BloodGroupBPos
	oNeg := model.BloodGroupONeg
	incompatible := new(fakeWriter)
	compatible := new(fakeWriter)
	agnostic := new(fakeWriter)
	require.NoError(t, h.handleRegister(incompatible, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{BloodType: &bPos}}))
	require.NoError(t, h.handleRegister(compatible, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{BloodType: &oNeg}}))
	require.NoError(t, h.handleRegister(agnostic, &model.ClientRegister{UserType: "recipient"}))

	counts := []int{incompatible.frameCount(), compatible.frameCount(), agnostic.frameCount()}
	require.NoError(t, h.broadcast(context.Background(), alert))
	assert.Equal(t, counts[0], incompatible.frameCount(), "B+ cannot donate to B-")
	assert.Equal(t, counts[1]+1, compatible.frameCount(), "O- can donate to B-")
	assert.Equal(t, counts[2]+1, agnostic.frameCount(), "no declared blood type receives everything")
}

func TestBroadcastRadius(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	delhi := &model.Location{Lat: 28.6139, Lon: 77.2090}
	mumbai := &model.Location{Lat: 19.0760, Lon: 72.8777}

	near := new(fakeWriter)
	far := new(fakeWriter)
	noCoords := new(fakeWriter)
	require.NoError(t, h.handleRegister(near, &model.ClientRegister{UserType: "donor", Location: delhi, Preferences: model.Preferences{Radius: 50}}))
	require.NoError(t, h.handleRegister(far, &model.ClientRegister{UserType: "donor", Location: mumbai, Preferences: model.Preferences{Radius: 50}}))
	require.NoError(t, h.handleRegister(noCoords, &model.ClientRegister{UserType: "donor", Preferences: model.Preferences{Radius: 50}}))

	counts := []int{near.frameCount(), far.frameCount(), noCoords.frameCount()}
	require.NoError(t, h.broadcast(context.Background(), &model.WeatherWarning{Severity: model.SeverityExtreme, Location: delhi, Message: "heat wave"}))
	assert.Equal(t, counts[0]+1, near.frameCount())
	assert.Equal(t, counts[1], far.frameCount())
	assert.Equal(t, counts[2]+1, noCoords.frameCount(), "radius check needs coordinates on both sides")
}

func TestBroadcastSurvivesDeadSubscriber(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	dead := &fakeWriter{}
	alive := new(fakeWriter)
	require.NoError(t, h.handleRegister(dead, &model.ClientRegister{UserType: "donor"}))
	require.NoError(t, h.handleRegister(alive, &model.ClientRegister{UserType: "donor"}))
	dead.failWrites = true
	aliveCount := alive.frameCount()

	err := h.broadcast(context.Background(), &model.UrgentRequest{Message: "need O-"})
	require.Error(t, err)
	assert.Equal(t, aliveCount+1, alive.frameCount(), "dead subscriber must not abort the fan-out")
}

func TestBroadcastJournalsThroughListener(t *testing.T) {
	h := helperNewHandler()
	var journaled []*model.Alert
	RegisterWSBroadcastListener(func(_ context.Context, alert *model.Alert) error {
		journaled = append(journaled, alert)

		return nil
	})
	t.Cleanup(func() { RegisterWSBroadcastListener(nil) })

	require.NoError(t, h.broadcast(context.Background(), &model.UrgentRequest{Message: "journal me"}))
	require.Len(t, journaled, 1)
	require.Equal(t, model.MessageTypeUrgentRequest, journaled[0].Kind)

	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(journaled[0].Payload, &frame))
	require.Contains(t, string(frame["data"]), "journal me")
}

func TestEvictIdle(t *testing.T) {
	t.Parallel()
	h := helperNewHandler()
	stale := new(fakeWriter)
	fresh := new(fakeWriter)
	require.NoError(t, h.handleRegister(stale, &model.ClientRegister{UserType: "donor"}))
	require.NoError(t, h.handleRegister(fresh, &model.ClientRegister{UserType: "donor"}))
	h.registrationsMx.Lock()
	h.registrations[stale].LastSeen = time.Now().Add(-2 * time.Minute)
	h.registrationsMx.Unlock()

	require.Equal(t, 1, h.evictIdle(time.Minute))
	assert.True(t, stale.closed)
	assert.False(t, fresh.closed)
	h.registrationsMx.Lock()
	_, staleRegistered := h.registrations[stale]
	_, freshRegistered := h.registrations[fresh]
	h.registrationsMx.Unlock()
	assert.False(t, staleRegistered)
	assert.True(t, freshRegistered)
}
