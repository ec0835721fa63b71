package controllers

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws/wsutil"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubPublish(t *testing.T) {
	hub := NewHub(zap.NewNop(), metrics.NewRegistry())
	server, client := net.Pipe()
	defer client.Close()

	sub := hub.Register(server)
	assert.Equal(t, uint(0), sub.GetID())
	assert.Equal(t, 1, hub.Len())

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Publish(map[string]string{"leak_pipe_id": "P103"})
	}()

	payload, err := wsutil.ReadServerText(client)
	require.NoError(t, err)
	<-done

	var msg struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "P103", msg.Data["leak_pipe_id"])

	hub.Remove(sub)
	hub.Remove(sub)
	assert.Equal(t, 0, hub.Len())
}

func TestHubDropsBrokenSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop(), metrics.NewRegistry())
	server, client := net.Pipe()
	hub.Register(server)
	client.Close()

	hub.Publish("ping")
	assert.Equal(t, 0, hub.Len())
}

func TestHubDropsSubscriberThatDoesNotRead(t *testing.T) {
	hub := NewHub(zap.NewNop(), metrics.NewRegistry())
	hub.SetWriteTimeout(50 * time.Millisecond)

	stalled, stalledClient := net.Pipe()
	defer stalledClient.Close()
	hub.Register(stalled)

	reader, readerClient := net.Pipe()
	defer readerClient.Close()
	hub.Register(reader)

	received := make(chan error, 1)
	go func() {
		_, err := wsutil.ReadServerText(readerClient)
		received <- err
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Publish(map[string]string{"leak_pipe_id": "P103"})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a subscriber that never reads")
	}
	require.NoError(t, <-received)
	assert.Equal(t, 1, hub.Len())
}

func TestHubRemoveAll(t *testing.T) {
	hub := NewHub(zap.NewNop(), metrics.NewRegistry())
	for i := 0; i < 3; i++ {
		server, client := net.Pipe()
		defer client.Close()
		sub := hub.Register(server)
		assert.Equal(t, uint(i), sub.GetID())
	}
	assert.Equal(t, 3, hub.Len())

	hub.RemoveAll()
	assert.Equal(t, 0, hub.Len())
}
