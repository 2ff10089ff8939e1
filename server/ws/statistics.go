// SPDX-License-Identifier: ice License 1.0

package ws

import (
	"io"
	"log"
	"time"

	"github.com/gookit/goutil/errorx"
	"github.com/jamiealquiza/tachymeter"
	"github.com/rcrowley/go-metrics"

	"github.com/bloodconnect/bloodconnect/model"
)

type (
	Statistics interface {
		io.Closer
		RegisteredClients(delta int64)
		BroadcastPublished(kind model.MessageType, delivered, failed int64, took time.Duration)
	}
	relayStats struct {
		metrics       metrics.Registry
		fanOutLatency *tachymeter.Tachymeter
		closeChannel  chan struct{}
	}
	noopStats struct{}
)

func (*noopStats) Close() error {
	return nil
}

func (*noopStats) RegisteredClients(int64) {
}

func (*noopStats) BroadcastPublished(model.MessageType, int64, int64, time.Duration) {
}

const (
	registeredClients   = "registeredClients"
	broadcastsPublished = "broadcastsPublished"
	framesDelivered     = "framesDelivered"
	sendFailures        = "sendFailures"

	statsLogPeriod     = time.Minute
	latencySampleCount = 10_000
)

func NewStatistics(debug bool) Statistics {
	if !debug {
		return &noopStats{}
	}
	s := &relayStats{
		metrics:       metrics.NewRegistry(),
		fanOutLatency: tachymeter.New(&tachymeter.Config{Size: latencySampleCount}),
		closeChannel:  make(chan struct{}),
	}
	for _, name := range []string{registeredClients, broadcastsPublished, framesDelivered, sendFailures} {
		if err := s.metrics.Register(name, metrics.NewCounter()); err != nil {
			log.Panic(errorx.Withf(err, "failed to register metric %v", name))
		}
	}
	go s.logLoop()

	return s
}

func (s *relayStats) RegisteredClients(delta int64) {
	metrics.GetOrRegisterCounter(registeredClients, s.metrics).Inc(delta)
}

func (s *relayStats) BroadcastPublished(_ model.MessageType, delivered, failed int64, took time.Duration) {
	metrics.GetOrRegisterCounter(broadcastsPublished, s.metrics).Inc(1)
	metrics.GetOrRegisterCounter(framesDelivered, s.metrics).Inc(delivered)
	metrics.GetOrRegisterCounter(sendFailures, s.metrics).Inc(failed)
	s.fanOutLatency.AddTime(took)
}

func (s *relayStats) logLoop() {
	ticker := time.NewTicker(statsLogPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeChannel:
			return
		case <-ticker.C:
			log.Printf("relay stats: clients %v, broadcasts %v, frames %v, failures %v, fan-out %v",
				metrics.GetOrRegisterCounter(registeredClients, s.metrics).Count(),
				metrics.GetOrRegisterCounter(broadcastsPublished, s.metrics).Count(),
				metrics.GetOrRegisterCounter(framesDelivered, s.metrics).Count(),
				metrics.GetOrRegisterCounter(sendFailures, s.metrics).Count(),
				s.fanOutLatency.Calc().String(),
			)
		}
	}
}

func (s *relayStats) Close() error {
	close(s.closeChannel)

	return nil
}
