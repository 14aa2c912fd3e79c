package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// tickerServer hands each accepted connection to serve with a context that
// ends when the client goes away.
func tickerServer(t *testing.T, serve func(ctx context.Context, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		serve(conn.CloseRead(r.Context()), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "test")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	return cfg
}

// stateLog records transitions for assertions.
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(s State, _ error) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) count(s State) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.states {
		if got == s {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr apperror.Code
	}{
		{name: "missing_url", cfg: Config{Name: "x"}, wantErr: apperror.CodeConfigurationError},
		{name: "defaults_backoff", cfg: Config{URL: "ws://localhost:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != "" {
				if apperror.GetCode(err) != tt.wantErr {
					t.Fatalf("err = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.State() != StateDisconnected {
				t.Fatalf("state = %s", c.State())
			}
			if c.cfg.InitialBackoff != time.Second || c.cfg.MaxBackoff != time.Second {
				t.Fatalf("backoff = %v/%v", c.cfg.InitialBackoff, c.cfg.MaxBackoff)
			}
		})
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name string
		cur  time.Duration
		want time.Duration
	}{
		{name: "doubles", cur: time.Second, want: 2 * time.Second},
		{name: "capped", cur: 20 * time.Second, want: 30 * time.Second},
		{name: "at_cap", cur: 30 * time.Second, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextBackoff(tt.cur, 30*time.Second); got != tt.want {
				t.Fatalf("nextBackoff(%v) = %v, want %v", tt.cur, got, tt.want)
			}
		})
	}
}

func TestClient_DeliversFrames(t *testing.T) {
	frames := []string{`[{"e":"24hrTicker","s":"ETHBTC"}]`, `[{"e":"24hrTicker","s":"BNBBTC"}]`}
	srv := tickerServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		<-ctx.Done()
	})

	c, err := New(testConfig(wsURL(srv)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var mu sync.Mutex
	var got []string
	c.OnMessage(func(_ context.Context, msg []byte) {
		mu.Lock()
		got = append(got, string(msg))
		mu.Unlock()
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.State() != StateConnected {
		t.Fatalf("state = %s", c.State())
	}

	waitFor(t, "both frames", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(frames)
	})
	mu.Lock()
	defer mu.Unlock()
	for i := range frames {
		if got[i] != frames[i] {
			t.Fatalf("frame %d = %s, want %s", i, got[i], frames[i])
		}
	}
}

func TestClient_ConnectRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	cfg := testConfig(url)
	cfg.MaxReconnects = 2
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var log stateLog
	c.OnStateChange(log.record)

	err = c.ConnectWithRetry(context.Background())
	if apperror.GetCode(err) != apperror.CodeWebSocketConnectionError {
		t.Fatalf("err = %v", err)
	}
	if !apperror.IsRetryable(err) {
		t.Fatal("dial failure should be retryable")
	}
	if n := log.count(StateConnecting); n != 2 {
		t.Fatalf("connecting transitions = %d, want 2", n)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("state = %s", c.State())
	}
}

func TestClient_ConnectWithRetryHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	cfg := testConfig(url)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.ConnectWithRetry(ctx); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	var conns atomic.Int32
	srv := tickerServer(t, func(ctx context.Context, conn *websocket.Conn) {
		if conns.Add(1) == 1 {
			conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		_ = conn.Write(ctx, websocket.MessageText, []byte(`[]`))
		<-ctx.Done()
	})

	c, err := New(testConfig(wsURL(srv)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var log stateLog
	c.OnStateChange(log.record)
	var frames atomic.Int32
	c.OnMessage(func(context.Context, []byte) { frames.Add(1) })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "frame after reconnect", func() bool { return frames.Load() > 0 })
	if conns.Load() < 2 {
		t.Fatalf("connections = %d", conns.Load())
	}
	if log.count(StateReconnecting) == 0 {
		t.Fatal("no reconnecting transition")
	}
	if c.State() != StateConnected {
		t.Fatalf("state = %s", c.State())
	}
}

func TestClient_NoReconnectWhenDisabled(t *testing.T) {
	srv := tickerServer(t, func(_ context.Context, conn *websocket.Conn) {
		conn.Close(websocket.StatusGoingAway, "bye")
	})

	cfg := testConfig(wsURL(srv))
	cfg.AutoReconnect = false
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var log stateLog
	c.OnStateChange(log.record)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })
	time.Sleep(50 * time.Millisecond)
	if n := log.count(StateReconnecting); n != 0 {
		t.Fatalf("reconnecting transitions = %d", n)
	}
}

func TestClient_OversizedFrameDisconnects(t *testing.T) {
	srv := tickerServer(t, func(ctx context.Context, conn *websocket.Conn) {
		_ = conn.Write(ctx, websocket.MessageText, []byte(strings.Repeat("x", 4096)))
		<-ctx.Done()
	})

	cfg := testConfig(wsURL(srv))
	cfg.MaxMessageSize = 1024
	cfg.AutoReconnect = false
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var frames atomic.Int32
	c.OnMessage(func(context.Context, []byte) { frames.Add(1) })
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })
	if frames.Load() != 0 {
		t.Fatalf("frames = %d, want 0", frames.Load())
	}
}

func TestClient_Close(t *testing.T) {
	srv := tickerServer(t, func(ctx context.Context, conn *websocket.Conn) {
		<-ctx.Done()
	})

	c, err := New(testConfig(wsURL(srv)))
	if err != nil {
		t.Fatal(err)
	}
	var log stateLog
	c.OnStateChange(log.record)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %s", c.State())
	}
	if n := log.count(StateClosed); n != 1 {
		t.Fatalf("closed transitions = %d, want 1", n)
	}
	if n := log.count(StateReconnecting); n != 0 {
		t.Fatalf("reconnected after close: %d", n)
	}

	err = c.Connect(context.Background())
	if apperror.GetCode(err) != apperror.CodeWebSocketClosed {
		t.Fatalf("Connect after Close = %v", err)
	}
}
