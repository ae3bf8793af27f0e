package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scoped struct {
	Student uuid.UUID `json:"studentId"`
	Note    string    `json:"note"`
}

func (s scoped) AudienceStudentID() uuid.UUID { return s.Student }

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame, ok := <-c.Send():
		require.True(t, ok, "client channel closed")
		var env Envelope
		require.NoError(t, sonic.Unmarshal(frame, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return Envelope{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.Send():
		t.Fatalf("unexpected frame %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversByAudience(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), 4)
	mine, other := uuid.New(), uuid.New()

	admin, err := hub.Subscribe(uuid.New(), true, nil)
	require.NoError(t, err)
	student, err := hub.Subscribe(uuid.New(), false, &mine)
	require.NoError(t, err)
	stranger, err := hub.Subscribe(uuid.New(), false, &other)
	require.NoError(t, err)

	require.NoError(t, hub.Broadcast(context.Background(), "fee-paid", scoped{Student: mine, Note: "x"}))

	env := recv(t, admin)
	assert.Equal(t, "fee-paid", env.Event)
	require.NotNil(t, env.StudentID)
	assert.Equal(t, mine, *env.StudentID)

	env = recv(t, student)
	var body scoped
	require.NoError(t, sonic.Unmarshal(env.Data, &body))
	assert.Equal(t, "x", body.Note)

	assertNothing(t, stranger)
}

func TestHub_UnscopedEventsOnlyReachAdmins(t *testing.T) {
	hub := NewHub(nil, 4)
	sid := uuid.New()
	admin, _ := hub.Subscribe(uuid.New(), true, nil)
	student, _ := hub.Subscribe(uuid.New(), false, &sid)

	require.NoError(t, hub.Broadcast(context.Background(), "maintenance", map[string]string{"msg": "hi"}))
	assert.Equal(t, "maintenance", recv(t, admin).Event)
	assertNothing(t, student)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), 1)
	slow, _ := hub.Subscribe(uuid.New(), true, nil)
	fast, _ := hub.Subscribe(uuid.New(), true, nil)

	require.NoError(t, hub.Broadcast(context.Background(), "a", 1))
	recv(t, fast)
	require.NoError(t, hub.Broadcast(context.Background(), "b", 2))

	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, "b", recv(t, fast).Event)

	// buffer berisi frame pertama, lalu channel ditutup
	<-slow.Send()
	_, ok := <-slow.Send()
	assert.False(t, ok)
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub(nil, 0)
	c, _ := hub.Subscribe(uuid.New(), true, nil)
	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	assert.Equal(t, 0, hub.Len())

	_, ok := <-c.Send()
	assert.False(t, ok)

	hub.Close()
	_, err := hub.Subscribe(uuid.New(), true, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.ErrorIs(t, hub.Broadcast(context.Background(), "x", 1), ErrHubClosed)
}

func TestRedisBridge_FansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zaptest.NewLogger(t), 4)
	sid := uuid.New()
	student, _ := hub.Subscribe(uuid.New(), false, &sid)

	sub := NewRedisSubscriber(rdb, "", hub, zaptest.NewLogger(t))
	require.NoError(t, sub.Start(ctx))

	pub := NewRedisPublisher(rdb, "")
	require.NoError(t, pub.Broadcast(ctx, "fee-paid", scoped{Student: sid, Note: "via redis"}))

	env := recv(t, student)
	assert.Equal(t, "fee-paid", env.Event)
	var body scoped
	require.NoError(t, sonic.Unmarshal(env.Data, &body))
	assert.Equal(t, "via redis", body.Note)
}

func TestRedisPublisher_ReportsConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	err := NewRedisPublisher(rdb, "x").Broadcast(context.Background(), "fee-paid", 1)
	assert.Error(t, err)
}
