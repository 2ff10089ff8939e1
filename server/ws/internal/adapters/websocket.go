// SPDX-License-Identifier: ice License 1.0

package adapters

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/gookit/goutil/errorx"

	"log"
	"time"
)

func NewWebsocketAdapter(ctx context.Context, conn net.Conn, readTimeout, writeTimeout time.Duration) (WSWithWriter, context.Context) {
	wsAdapter := &WebsocketAdapter{
		conn:         conn,
		out:          make(chan wsWrite),
		closeChannel: make(chan struct{}, 1),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}

	return wsAdapter, NewCustomCancelContext(ctx, wsAdapter.closeChannel)
}

func NewCustomCancelContext(ctx context.Context, ch <-chan struct{}) context.Context {
	return customCancelContext{Context: ctx, ch: ch}
}

func (c customCancelContext) Done() <-chan struct{} {
	return c.ch
}

func (c customCancelContext) Err() error {
	select {
	case <-c.ch:
		return context.Canceled
	default:
		return nil
	}
}

func (w *WebsocketAdapter) WriteMessage(messageType int, data []byte) (err error) {
	if w.Closed() {
		return nil
	}
	if w.writeFailed() {
		return w.Close()
	}
	// Close can land between the check above and the send, so the send always
	// selects on closeChannel instead of trusting the snapshot.
	select {
	case <-w.closeChannel:
		return nil
	case w.out <- wsWrite{data: data, opCode: messageType}:
		return nil
	}
}

func (w *WebsocketAdapter) writeFailed() bool {
	w.wrErrMx.Lock()
	defer w.wrErrMx.Unlock()

	return isConnClosedErr(w.wrErr)
}

func (w *WebsocketAdapter) writeMessageToSocket(write wsWrite) error {
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)) //nolint:errcheck // .
	}
	select {
	case <-w.closeChannel:
		return nil
	default:
		if err := wsutil.WriteServerMessage(w.conn, ws.OpCode(write.opCode), write.data); err != nil {
			w.wrErrMx.Lock()
			w.wrErr = err
			w.wrErrMx.Unlock()
			if isConnClosedErr(err) {
				return nil
			}
			return errorx.Withf(err, "failed to write data to websocket")
		}
		return nil
	}
}

func (w *WebsocketAdapter) Write(ctx context.Context) {
	for {
		select {
		case <-w.closeChannel:
			return
		case msg := <-w.out:
			if ctx.Err() != nil || w.writeFailed() {
				return
			}
			if err := w.writeMessageToSocket(msg); err != nil {
				log.Printf("ERROR:%v", errorx.Withf(err, "failed to send message to websocket"))
			}
		}
	}
}

func (w *WebsocketAdapter) Closed() bool {
	w.closeMx.Lock()
	closed := w.closed
	w.closeMx.Unlock()

	return closed
}

func (w *WebsocketAdapter) Close() error {
	w.closeMx.Lock()
	if w.closed {
		w.closeMx.Unlock()

		return nil
	}
	w.closed = true
	// out stays open, pending senders bail out through closeChannel instead.
	close(w.closeChannel)
	w.closeMx.Unlock()

	_ = ws.WriteFrame(w.conn, ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))) //nolint:errcheck // Best effort.
	if err := w.conn.Close(); err != nil && !isConnClosedErr(err) {
		return errorx.With(err, "failed to close websocket conn")
	}

	return nil
}

func (w *WebsocketAdapter) ReadMessage() (messageType int, readValue []byte, err error) {
	if w.readTimeout > 0 {
		_ = w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)) //nolint:errcheck // .
	}
	readValue, op, err := wsutil.ReadClientData(w.conn)
	if err != nil {
		return int(op), readValue, err
	}

	return int(op), readValue, nil
}

func isConnClosedErr(err error) bool {
	return err != nil &&
		(errors.Is(err, net.ErrClosed) ||
			errors.Is(err, io.EOF) ||
			strings.Contains(err.Error(), "use of closed network connection"))
}
