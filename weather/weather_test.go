// SPDX-License-Identifier: ice License 1.0

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	stdlibtime "time"

	"github.com/gookit/goutil/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/bloodconnect/model"
)

type publishRecorder struct {
	mx       sync.Mutex
	warnings []*model.WeatherWarning
}

func (r *publishRecorder) publish(_ context.Context, warning *model.WeatherWarning) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.warnings = append(r.warnings, warning)

	return nil
}

func (r *publishRecorder) published() []*model.WeatherWarning {
	r.mx.Lock()
	defer r.mx.Unlock()

	return append([]*model.WeatherWarning(nil), r.warnings...)
}

const feedPayload = `{
	"features": [
		{
			"geometry": {"type": "Polygon", "coordinates": [[[77.2090, 28.6139], [77.30, 28.70], [77.10, 28.70], [77.2090, 28.6139]]]},
			"properties": {
				"id": "urn:oid:2.49.0.1.840.0.1",
				"event": "Severe Thunderstorm Warning",
				"areaDesc": "Central Delhi",
				"severity": "Severe",
				"status": "Actual",
				"description": "60 mph wind gusts and quarter size hail."
			}
		},
		{
			"properties": {
				"id": "urn:oid:2.49.0.1.840.0.2",
				"event": "Heat Advisory",
				"areaDesc": "Mumbai Metro",
				"severity": "Moderate",
				"status": "Actual"
			}
		},
		{
			"properties": {
				"id": "urn:oid:2.49.0.1.840.0.3",
				"event": "Drill",
				"areaDesc": "Nowhere",
				"severity": "Extreme",
				"status": "Test"
			}
		},
		{
			"properties": {
				"id": "urn:oid:2.49.0.1.840.0.4",
				"event": "Ancient Storm",
				"areaDesc": "The Past",
				"severity": "Extreme",
				"status": "Actual",
				"expires": "2001-01-01T00:00:00Z"
			}
		}
	]
}`

func helperNewWatcher(tb testing.TB, payload string) (*Watcher, *publishRecorder, *int64) {
	tb.Helper()
	polls := new(int64)
	feed := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		atomic.AddInt64(polls, 1)
		assert.Equal(tb, "application/geo+json", req.Header.Get("Accept"))
		assert.NotEmpty(tb, req.Header.Get("User-Agent"))
		_, _ = writer.Write([]byte(payload))
	}))
	tb.Cleanup(feed.Close)
	recorder := new(publishRecorder)
	watcher := New(&Config{FeedURL: feed.URL, PollInterval: 10 * stdlibtime.Millisecond}, recorder.publish)

	return watcher, recorder, polls
}

func TestPollPublishesActionableWarningsOnce(t *testing.T) {
	t.Parallel()
	watcher, recorder, _ := helperNewWatcher(t, feedPayload)

	require.NoError(t, watcher.pollOnce(context.Background()))
	published := recorder.published()
	require.Len(t, published, 2, "test statuses and expired alerts must be dropped")
	assert.Equal(t, model.SeverityHigh, published[0].Severity)
	assert.Equal(t, "Severe Thunderstorm Warning: Central Delhi", published[0].Message)
	require.NotNil(t, published[0].Location)
	assert.InDelta(t, 28.6139, published[0].Location.Lat, 0.0001)
	assert.InDelta(t, 77.2090, published[0].Location.Lon, 0.0001)
	assert.NotEmpty(t, published[0].Weather)
	assert.Equal(t, model.SeverityMedium, published[1].Severity)
	assert.Nil(t, published[1].Location)

	// The same feed again must not re-publish anything.
	require.NoError(t, watcher.pollOnce(context.Background()))
	assert.Len(t, recorder.published(), 2)
}

func TestSeenIDsExpire(t *testing.T) {
	t.Parallel()
	watcher, recorder, _ := helperNewWatcher(t, feedPayload)
	require.NoError(t, watcher.pollOnce(context.Background()))
	require.Len(t, recorder.published(), 2)

	watcher.seenMx.Lock()
	for id := range watcher.seen {
		watcher.seen[id] = stdlibtime.Now().Add(-seenRetention - stdlibtime.Minute)
	}
	watcher.seenMx.Unlock()
	require.NoError(t, watcher.pollOnce(context.Background()))
	assert.Len(t, recorder.published(), 4)
}

func TestStartPollsUntilCancelled(t *testing.T) {
	t.Parallel()
	watcher, recorder, polls := helperNewWatcher(t, feedPayload)
	ctx, cancel := context.WithTimeout(context.Background(), 100*stdlibtime.Millisecond)
	defer cancel()

	watcher.Start(ctx)
	assert.GreaterOrEqual(t, atomic.LoadInt64(polls), int64(2))
	assert.Len(t, recorder.published(), 2)
}

func TestStartWithoutFeedURLIsNoop(t *testing.T) {
	t.Parallel()
	recorder := new(publishRecorder)
	watcher := New(&Config{}, recorder.publish)
	ctx, cancel := context.WithTimeout(context.Background(), 20*stdlibtime.Millisecond)
	defer cancel()

	watcher.Start(ctx)
	assert.Empty(t, recorder.published())
}

func TestFeedErrorsAreNotFatal(t *testing.T) {
	t.Parallel()
	recorder := new(publishRecorder)
	feed := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(feed.Close)
	watcher := New(&Config{FeedURL: feed.URL}, recorder.publish)

	require.Error(t, watcher.pollOnce(context.Background()))
	assert.Empty(t, recorder.published())
}

func TestFailedPublishIsRetriedNextPoll(t *testing.T) {
	t.Parallel()
	feed := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = writer.Write([]byte(feedPayload))
	}))
	t.Cleanup(feed.Close)
	recorder := new(publishRecorder)
	var broken atomic.Bool
	broken.Store(true)
	watcher := New(&Config{FeedURL: feed.URL}, func(ctx context.Context, warning *model.WeatherWarning) error {
		if broken.Load() {
			return errorx.Raw("relay is not accepting subscribers yet")
		}

		return recorder.publish(ctx, warning)
	})

	require.NoError(t, watcher.pollOnce(context.Background()))
	require.Empty(t, recorder.published())

	broken.Store(false)
	require.NoError(t, watcher.pollOnce(context.Background()))
	assert.Len(t, recorder.published(), 2, "warnings dropped by a failed publish must be retried")
}

func TestNormalizeSeverity(t *testing.T) {
	t.Parallel()
	for feedValue, expected := range map[string]model.Severity{
		"Extreme":  model.SeverityExtreme,
		"Severe":   model.SeverityHigh,
		"Moderate": model.SeverityMedium,
		"Minor":    model.SeverityLow,
		"Unknown":  model.SeverityLow,
		"":         model.SeverityLow,
	} {
		severity, err := normalizeSeverity(feedValue)
		require.NoError(t, err, feedValue)
		assert.Equal(t, expected, severity, feedValue)
	}
	_, err := normalizeSeverity("cataclysmic")
	require.ErrorIs(t, err, model.ErrUnknownSeverity)
}
