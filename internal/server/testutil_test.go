package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"kadi/internal/room"
	"kadi/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts     *httptest.Server
	broker *room.Broker
	store  *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	broker := room.NewBroker(store)
	broker.SetRandFactory(func() *rand.Rand {
		return rand.New(rand.NewSource(1))
	})

	srv := New(broker, store)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, broker: broker, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createRoomViaAPI(t *testing.T, ts *httptest.Server, playerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"playerId":%q}`, playerID)
	resp, err := http.Post(ts.URL+"/api/rooms", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/rooms/" + code + "/ws"
}

// wsConnect dials a WebSocket, sends a join message, and returns the
// connection. The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	if err := sendWS(ctx, conn, "join", joinPayload{PlayerID: playerID}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	return conn
}

// sendWS marshals and sends a typed WebSocket message.
func sendWS(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// readWS reads and unmarshals a single WebSocket message.
func readWS(ctx context.Context, conn *websocket.Conn) (WSMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return WSMessage{}, err
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	return msg, nil
}

// wsRead reads and unmarshals a WebSocket message, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	return msg
}

// expectWS reads one message and requires the given type.
func expectWS(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != msgType {
		t.Fatalf("expected %q message, got %q: %s", msgType, msg.Type, string(msg.Payload))
	}
	return msg
}

// readStart reads a WebSocket message and expects a game-start.
func readStart(t *testing.T, ctx context.Context, conn *websocket.Conn) startPayload {
	t.Helper()
	msg := expectWS(t, ctx, conn, "game-start")
	var sp startPayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal game-start payload: %v", err)
	}
	return sp
}

// readError reads a WebSocket message and expects an error, returning its code.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg := expectWS(t, ctx, conn, "error")
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Code
}

// readMove reads a move-result or opponent-move message.
func readMove(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) moveResultPayload {
	t.Helper()
	msg := expectWS(t, ctx, conn, msgType)
	var mp moveResultPayload
	if err := json.Unmarshal(msg.Payload, &mp); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msgType, err)
	}
	return mp
}

// startPair creates a room, connects both players and consumes the
// room-joined and game-start preamble. It returns both connections and
// both start payloads.
func startPair(t *testing.T, env *testEnv, ctx context.Context) (a, b *websocket.Conn, sa, sb startPayload) {
	t.Helper()
	code := createRoomViaAPI(t, env.ts, "alice")

	a = wsConnect(t, env.ts, code, "alice")
	t.Cleanup(func() { a.Close(websocket.StatusNormalClosure, "") })
	expectWS(t, ctx, a, "room-joined")

	b = wsConnect(t, env.ts, code, "bob")
	t.Cleanup(func() { b.Close(websocket.StatusNormalClosure, "") })
	expectWS(t, ctx, b, "room-joined")

	sa = readStart(t, ctx, a)
	sb = readStart(t, ctx, b)
	return a, b, sa, sb
}
