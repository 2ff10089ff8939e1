// SPDX-License-Identifier: ice License 1.0

package adapters

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helperNewPipeAdapter(t *testing.T) WSWithWriter {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	go func() {
		_, _ = io.Copy(io.Discard, serverConn) //nolint:errcheck // Drains until the pipe closes.
	}()
	t.Cleanup(func() { _ = serverConn.Close() })

	adapter, ctx := NewWebsocketAdapter(context.Background(), clientConn, time.Second, time.Second)
	go adapter.Write(ctx)

	return adapter
}

func TestWriteMessageSurvivesConcurrentClose(t *testing.T) {
	t.Parallel()
	for iter := 0; iter < 50; iter++ {
		adapter := helperNewPipeAdapter(t)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 20; k++ {
					assert.NoError(t, adapter.WriteMessage(int(ws.OpText), []byte("heartbeat")))
				}
			}()
		}
		require.NoError(t, adapter.Close())
		wg.Wait()
		require.NoError(t, adapter.Close(), "close is idempotent")
	}
}

func TestWriteMessageAfterCloseIsNoop(t *testing.T) {
	t.Parallel()
	adapter := helperNewPipeAdapter(t)

	require.NoError(t, adapter.WriteMessage(int(ws.OpText), []byte("before close")))
	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.WriteMessage(int(ws.OpText), []byte("after close")))
}
