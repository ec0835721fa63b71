package controllers

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"go.uber.org/zap"
)

// FEED_WRITE_TIMEOUT bounds every frame written to a subscriber. a client that does not read in
// time is dropped so evaluations never wait on the feed.
const FEED_WRITE_TIMEOUT = 2 * time.Second

// Subscriber one websocket connection of the result feed. the feed is push only, frames
// sent by the client are read just to answer pings and notice the close.
type Subscriber struct {
	io   sync.Mutex
	conn net.Conn

	id  uint
	hub *Hub
}

func (s *Subscriber) GetID() uint {
	return s.id
}

// Receive blocks until the client goes away.
func (s *Subscriber) Receive() error {
	for {
		h, r, err := wsutil.NextReader(s.conn, ws.StateServerSide)
		if err != nil {
			return err
		}
		if h.OpCode.IsControl() {
			s.io.Lock()
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.writeTimeout))
			err = wsutil.ControlFrameHandler(s.conn, ws.StateServerSide)(h, r)
			s.io.Unlock()
			if err != nil {
				return err
			}
			continue
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			return err
		}
	}
}

func (s *Subscriber) write(payload []byte) error {
	s.io.Lock()
	defer s.io.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.writeTimeout)); err != nil {
		return err
	}
	return wsutil.WriteServerMessage(s.conn, ws.OpText, payload)
}

type Hub struct {
	mu           sync.RWMutex
	seq          uint
	ns           map[uint]*Subscriber
	log          *zap.Logger
	metrics      *metrics.Registry
	writeTimeout time.Duration
}

func NewHub(log *zap.Logger, registry *metrics.Registry) *Hub {
	return &Hub{
		ns:           make(map[uint]*Subscriber),
		log:          log,
		metrics:      registry,
		writeTimeout: FEED_WRITE_TIMEOUT,
	}
}

func (h *Hub) SetWriteTimeout(timeout time.Duration) {
	h.writeTimeout = timeout
}

func (h *Hub) Register(conn net.Conn) *Subscriber {
	sub := &Subscriber{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	sub.id = h.seq
	h.ns[sub.id] = sub
	h.seq++
	n := len(h.ns)
	h.mu.Unlock()

	h.metrics.WebsocketSubscribers.Set(float64(n))
	return sub
}

func (h *Hub) Remove(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.ns[sub.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.ns, sub.id)
	n := len(h.ns)
	h.mu.Unlock()

	sub.conn.Close()
	h.metrics.WebsocketSubscribers.Set(float64(n))
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ns)
}

// Publish sends message as one json text frame to every subscriber in parallel and returns once
// each write finished or hit the write timeout. a subscriber whose write fails is dropped.
func (h *Hub) Publish(message interface{}) {
	payload, err := json.Marshal(envelope{"data": message})
	if err != nil {
		h.log.Error("encode feed message", zap.Error(err))
		return
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.ns))
	for _, s := range h.ns {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s *Subscriber) {
			defer wg.Done()
			if err := s.write(payload); err != nil {
				h.log.Debug("drop feed subscriber", zap.Uint("subscriber", s.id), zap.Error(err))
				h.Remove(s)
			}
		}(s)
	}
	wg.Wait()
}

func (h *Hub) RemoveAll() {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.ns))
	for _, s := range h.ns {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		h.Remove(s)
	}
}
