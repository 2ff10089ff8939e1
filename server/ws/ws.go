// SPDX-License-Identifier: ice License 1.0

package ws

import (
	"context"
	"io"
	"log"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/hashicorp/go-multierror"

	"github.com/bloodconnect/bloodconnect/model"
	"github.com/bloodconnect/bloodconnect/server/ws/internal"
	"github.com/bloodconnect/bloodconnect/server/ws/internal/adapters"
)

// wsBroadcastListener observes every published broadcast, e.g. to journal it.
var wsBroadcastListener func(context.Context, *model.Alert) error

func RegisterWSBroadcastListener(listen func(context.Context, *model.Alert) error) {
	wsBroadcastListener = listen
}

var hdl atomic.Pointer[handler]

const textOpCode = int(ws.OpText)

func NewHandler(cfg *Config) internal.WSHandler {
	h := &handler{
		cfg:           cfg,
		stats:         NewStatistics(cfg.Debug),
		registrations: make(map[adapters.WSWriter]*registration),
	}
	hdl.Store(h)

	return h
}

func New(cfg *Config, routes internal.RegisterRoutes) internal.Server {
	return internal.NewWSServer(routes, cfg)
}

// Broadcast fans msg out to every registered subscriber whose preferences match.
// Publishers may race server startup, so a not-yet-started relay is an error,
// not a panic.
func Broadcast(ctx context.Context, msg model.Message) error {
	h := hdl.Load()
	if h == nil {
		return errors.New("relay is not accepting subscribers yet")
	}

	return h.broadcast(ctx, msg)
}

func StartJanitor(ctx context.Context) {
	h := hdl.Load()
	if h == nil {
		log.Panic("server is not started")
	}
	go h.evictIdleLoop(ctx)
}

func (h *handler) Read(ctx context.Context, stream internal.WS) {
	for {
		t, msgBytes, err := stream.ReadMessage()
		if err != nil {
			closed := new(wsutil.ClosedError)
			if errors.As(err, closed) {
				if closed.Code != ws.StatusNormalClosure &&
					closed.Code != ws.StatusGoingAway &&
					closed.Code != ws.StatusAbnormalClosure &&
					closed.Code != ws.StatusNoStatusRcvd {
					log.Printf("WARN: unexpected close error %v: %v", closed.Code, closed.Reason)
				}
			} else if !errors.Is(err, io.EOF) {
				log.Printf("WARN: unexpected read error: %v", err)
			}
			break
		}
		if len(msgBytes) > 0 && ws.OpCode(t) == ws.OpText {
			h.Handle(ctx, stream, msgBytes)
		}
	}
	h.unregister(stream)
}

func (h *handler) Handle(ctx context.Context, respWriter adapters.WSWriter, msgBytes []byte) {
	input, err := model.ParseMessage(msgBytes)
	if err != nil {
		// Unknown/misshapen frames are answered, never fatal for the connection.
		status := &model.SystemStatus{Status: "error: " + err.Error()}
		log.Printf("WARN:%v", multierror.Append(err, h.writeMessage(respWriter, status)).ErrorOrNil())

		return
	}

	switch m := input.(type) {
	case *model.ClientRegister:
		err = h.handleRegister(respWriter, m)
	case *model.Heartbeat:
		err = h.handleHeartbeat(respWriter, m)
	default:
		// Server-originated types have no business arriving from a client.
		err = errors.Errorf("unexpected message type %v", input.MessageType())
	}

	if err != nil {
		err = errors.Wrapf(err, "failed to handle %v", input.MessageType())
		status := &model.SystemStatus{Status: "error: " + err.Error()}
		log.Printf("ERROR:%v", multierror.Append(err, h.writeMessage(respWriter, status)).ErrorOrNil())
	}
}

func (h *handler) writeMessage(respWriter adapters.WSWriter, msg model.Message) error {
	b, err := model.MarshalMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize %+v into json", msg)
	}

	return respWriter.WriteMessage(int(ws.OpText), b)
}
