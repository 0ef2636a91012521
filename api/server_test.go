package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindListener_FirstPortFree(t *testing.T) {
	// Grab an ephemeral port, release it, then ask FindListener to scan
	// from there. The port may get reused in between, so only assert the
	// scan stays within range.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := probe.Addr().(*net.TCPAddr).Port
	require.NoError(t, probe.Close())

	ln, port, err := FindListener("127.0.0.1", base, 10)
	require.NoError(t, err)
	defer ln.Close()

	assert.GreaterOrEqual(t, port, base)
	assert.Less(t, port, base+10)
	assert.Equal(t, port, ln.Addr().(*net.TCPAddr).Port)
}

func TestFindListener_SkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	base := busy.Addr().(*net.TCPAddr).Port

	ln, port, err := FindListener("127.0.0.1", base, 10)
	require.NoError(t, err)
	defer ln.Close()

	assert.Greater(t, port, base, "the busy base port must be skipped")
}

func TestFindListener_Exhausted(t *testing.T) {
	var busy []net.Listener
	defer func() {
		for _, ln := range busy {
			ln.Close()
		}
	}()

	first, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	busy = append(busy, first)
	base := first.Addr().(*net.TCPAddr).Port

	// Occupy the whole scan range. Skip any port someone else grabbed
	// first; the scan treats those as busy all the same.
	tries := 3
	for port := base + 1; port < base+tries; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			busy = append(busy, ln)
		}
	}

	_, _, err = FindListener("127.0.0.1", base, tries)
	if err == nil {
		t.Skip("scan range freed up underneath the test")
	}
	assert.Contains(t, err.Error(), "no available ports")
}

func TestWritePortFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "active-port.json")
	require.NoError(t, WritePortFile(path, 5003))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"port": 5003}`, string(data))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	defer http.DefaultTransport.(*http.Transport).CloseIdleConnections()

	ln, port, err := FindListener("127.0.0.1", 0, 1)
	require.NoError(t, err)

	srv := newTestServer(&fakeAnswerer{answer: "ok"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	// Health must answer over a real socket.
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(url)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", body.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown must not error")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
