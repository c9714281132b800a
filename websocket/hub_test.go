package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu      sync.Mutex
	written []interface{}
	failErr error
	closed  bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.written = append(f.written, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestHubPushesToEveryConnectionOfUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	user := uuid.New()
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register(&Client{UserID: user, Conn: a})
	hub.Register(&Client{UserID: user, Conn: b})
	hub.Register(&Client{UserID: uuid.New(), Conn: other})

	hub.Push(user, map[string]string{"title": "hello"})

	assert.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, other.count())
}

func TestHubDropsBrokenConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	user := uuid.New()
	broken := &fakeConn{failErr: errors.New("broken pipe")}
	hub.Register(&Client{UserID: user, Conn: broken})
	assert.Eventually(t, func() bool { return hub.Online(user) }, time.Second, 5*time.Millisecond)

	hub.Push(user, "ping")

	assert.Eventually(t, func() bool { return !hub.Online(user) }, time.Second, 5*time.Millisecond)
	assert.True(t, broken.isClosed())
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	user := uuid.New()
	client := &Client{UserID: user, Conn: &fakeConn{}}
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.Online(user) }, time.Second, 5*time.Millisecond)
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return !hub.Online(user) }, time.Second, 5*time.Millisecond)
}

func TestPushWithoutRunnerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Push(uuid.New(), i)
	}
}

func TestRegistrationAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	finished := make(chan struct{})
	go func() {
		hub.Run()
		close(finished)
	}()

	user := uuid.New()
	client := &Client{UserID: user, Conn: &fakeConn{}}
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.Online(user) }, time.Second, 5*time.Millisecond)

	hub.Stop()
	<-finished

	returned := make(chan struct{})
	go func() {
		hub.Unregister(client)
		hub.Register(&Client{UserID: uuid.New(), Conn: &fakeConn{}})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after Stop")
	}
	assert.False(t, hub.Online(user))
}
