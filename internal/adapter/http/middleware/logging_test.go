package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
)

// The websocket upgrader type-asserts http.Hijacker on the ResponseWriter it
// receives, so the wrapper must keep implementing it through the whole chain.
func TestLogging_WebsocketUpgradeThroughMiddleware(t *testing.T) {
	m := NewMiddleware(logger.InitLogger("middleware-test", logger.LevelError))
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conn.Close()
	})

	srv := httptest.NewServer(m.Recover(m.Logging(handler)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial through middleware failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
}

func TestLogging_Hijack(t *testing.T) {
	rw := &responseWriterWrapper{ResponseWriter: httptest.NewRecorder()}

	// httptest.ResponseRecorder does not hijack; the wrapper must surface
	// a clean error instead of panicking
	if _, _, err := rw.Hijack(); err == nil {
		t.Fatalf("expected error hijacking a non-hijackable writer")
	}
}
