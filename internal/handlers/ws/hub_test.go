package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu       sync.Mutex
	frames   []frame
	failNext bool
	closed   bool
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) WriteControl(kind int, data []byte, deadline time.Time) error {
	return f.WriteMessage(kind, data)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) last() frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[len(f.frames)-1]
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(HubOptions{PingInterval: time.Hour, PongTimeout: time.Minute}, zap.NewNop())
	t.Cleanup(h.Close)
	return h
}

func TestHubRegisterUnregister(t *testing.T) {
	h := newTestHub(t)
	tab1 := h.Register("u1", &fakeConn{}, false)
	tab2 := h.Register("u1", &fakeConn{}, false)

	assert.True(t, h.IsOnline("u1"))
	assert.Equal(t, 1, h.Count())

	assert.False(t, h.Unregister(tab1), "another tab is still open")
	assert.True(t, h.IsOnline("u1"))
	assert.True(t, h.Unregister(tab2))
	assert.False(t, h.IsOnline("u1"))
	assert.False(t, h.Unregister(tab2), "second unregister is a no-op")
}

func TestDisconnectOnlyLastConnectionGoesOffline(t *testing.T) {
	h := newTestHub(t)
	var events []string
	online := func() { events = append(events, "online") }
	offline := func() { events = append(events, "offline") }

	tab1 := h.Connect("u1", &fakeConn{}, false, online)
	tab2 := h.Connect("u1", &fakeConn{}, false, online)
	h.Disconnect(tab1, offline)
	assert.Equal(t, []string{"online", "online"}, events)

	h.Disconnect(tab2, offline)
	assert.Equal(t, []string{"online", "online", "offline"}, events)

	// Already dropped by the hub: the user is still offline.
	h.Disconnect(tab2, offline)
	assert.Equal(t, "offline", events[len(events)-1])
}

func TestReconnectDuringDisconnectEndsOnline(t *testing.T) {
	h := newTestHub(t)
	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	old := h.Connect("u1", &fakeConn{}, false, nil)

	offlineStarted := make(chan struct{})
	release := make(chan struct{})
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		h.Disconnect(old, func() {
			close(offlineStarted)
			<-release
			record("offline")
		})
	}()
	<-offlineStarted

	connected := make(chan *Client)
	go func() {
		connected <- h.Connect("u1", &fakeConn{}, false, func() { record("online") })
	}()

	select {
	case <-connected:
		t.Fatal("connect must wait for the pending disconnect")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-disconnected
	client := <-connected

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"offline", "online"}, events)
	assert.True(t, h.IsOnline("u1"))
	assert.Equal(t, "u1", client.UserID)
}

func TestNotifyMessage(t *testing.T) {
	h := newTestHub(t)
	conn := &fakeConn{}
	h.Register("bob", conn, false)

	msg := models.MessageResponse{ID: "m1", ConversationID: "c1", SenderID: "alice", Content: "hi", ReadBy: []string{"alice"}}
	h.NotifyMessage("bob", msg)
	h.NotifyMessage("nobody", msg)

	require.Equal(t, 1, conn.count())
	got := conn.last()
	assert.Equal(t, websocket.TextMessage, got.kind)

	var env struct {
		Type string                 `json:"type"`
		Data models.MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got.data, &env))
	assert.Equal(t, "message", env.Type)
	assert.Equal(t, "hi", env.Data.Content)
}

func TestSendToUserCompressesLargePayloads(t *testing.T) {
	h := newTestHub(t)
	plain, zipped := &fakeConn{}, &fakeConn{}
	h.Register("u", plain, false)
	h.Register("u", zipped, true)

	payload := Envelope{Type: "message", Data: strings.Repeat("a", 4096)}
	assert.Equal(t, 2, h.SendToUser("u", payload))

	assert.Equal(t, websocket.TextMessage, plain.last().kind)
	compressed := zipped.last()
	require.Equal(t, websocket.BinaryMessage, compressed.kind)
	inflated, err := DecompressMessage(compressed.data)
	require.NoError(t, err)
	assert.JSONEq(t, string(plain.last().data), string(inflated))
}

func TestFailedWriteDropsConnection(t *testing.T) {
	h := newTestHub(t)
	conn := &fakeConn{failNext: true}
	h.Register("u", conn, false)

	assert.Equal(t, 0, h.SendToUser("u", Envelope{Type: "message"}))
	assert.False(t, h.IsOnline("u"))
	assert.True(t, conn.closed)
}

func TestPruneStale(t *testing.T) {
	h := newTestHub(t)
	stale := h.Register("old", &fakeConn{}, false)
	fresh := h.Register("new", &fakeConn{}, false)
	h.Touch(fresh)

	assert.Equal(t, 0, h.pruneStale(time.Now()))
	assert.Equal(t, 2, h.pruneStale(time.Now().Add(2*time.Minute)))
	assert.False(t, h.IsOnline(stale.UserID))
	assert.False(t, h.IsOnline(fresh.UserID))
}

type heartbeats struct {
	mu  sync.Mutex
	ids []string
}

func (b *heartbeats) Heartbeat(_ context.Context, userID string) {
	b.mu.Lock()
	b.ids = append(b.ids, userID)
	b.mu.Unlock()
}

func TestPingMessage(t *testing.T) {
	h := newTestHub(t)
	conn := &fakeConn{}
	client := h.Register("u", conn, false)
	beats := &heartbeats{}

	for _, raw := range []string{`{"type":"ping"}`, `{"type":"ping","payload":{}}`} {
		msg, err := Deserialize([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, msg.Process(&MessageContext{Ctx: context.Background(), UserID: "u", Client: client, Hub: h, Presence: beats}))
		assert.JSONEq(t, `{"type":"pong"}`, string(conn.last().data))
	}
	assert.Equal(t, []string{"u", "u"}, beats.ids)

	_, err := Deserialize([]byte(`{"type":"typing"}`))
	assert.Error(t, err)
	_, err = Deserialize([]byte(`not json`))
	assert.Error(t, err)
}

type readCalls struct {
	calls [][2]string
	err   error
}

func (r *readCalls) MarkRead(_ context.Context, userID, convID string) error {
	r.calls = append(r.calls, [2]string{userID, convID})
	return r.err
}

func TestMarkReadMessage(t *testing.T) {
	h := newTestHub(t)
	conn := &fakeConn{}
	client := h.Register("u", conn, false)
	chat := &readCalls{}
	mctx := &MessageContext{Ctx: context.Background(), UserID: "u", Client: client, Hub: h, Chat: chat}

	msg, err := Deserialize([]byte(`{"type":"read","payload":{"conversation_id":"c1"}}`))
	require.NoError(t, err)
	require.NoError(t, msg.Process(mctx))
	assert.Equal(t, [][2]string{{"u", "c1"}}, chat.calls)
	assert.JSONEq(t, `{"type":"read","data":{"conversation_id":"c1"}}`, string(conn.last().data))

	msg, err = Deserialize([]byte(`{"type":"read","payload":{}}`))
	require.NoError(t, err)
	err = msg.Process(mctx)
	require.Error(t, err)
	require.NoError(t, SendProcessError(client, err))
	assert.JSONEq(t, `{"type":"error","error":"conversation_id is required","code":"invalid_argument"}`, string(conn.last().data))

	chat.err = apperr.NotFound("Conversation not found or you are not a participant")
	msg, err = Deserialize([]byte(`{"type":"read","payload":{"conversation_id":"c2"}}`))
	require.NoError(t, err)
	err = msg.Process(mctx)
	require.NoError(t, SendProcessError(client, err))
	assert.JSONEq(t, `{"type":"error","error":"Conversation not found or you are not a participant","code":"not_found"}`, string(conn.last().data))

	require.NoError(t, SendProcessError(client, errors.New("db down")))
	assert.JSONEq(t, `{"type":"error","error":"Internal server error","code":"unknown"}`, string(conn.last().data))
}

func TestSerializeRoundTrip(t *testing.T) {
	data, err := Serialize(&MessagePing{})
	require.NoError(t, err)
	msg, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "ping", msg.GetType())
	assert.Contains(t, inbound, "pong")
	assert.Contains(t, inbound, "read")
}
