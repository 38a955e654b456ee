package socket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"verigate.github.io/pulse/envelope"
	"verigate.github.io/pulse/internal/keepalive"
	"verigate.github.io/pulse/internal/metrics"
	"verigate.github.io/pulse/internal/observer"
	"verigate.github.io/pulse/internal/queue"
	"verigate.github.io/pulse/xerr"
	"verigate.github.io/pulse/xlog"
)

// Poller serves the message stream while the socket is in fallback: one
// poll returns the envelopes the channel would have pushed since the last
// poll. This is the only surface that differs between stream flavours.
type Poller interface {
	PollOnce(ctx context.Context) ([]envelope.Envelope, error)
}

// PollFunc adapts a function to the Poller interface.
type PollFunc func(ctx context.Context) ([]envelope.Envelope, error)

func (f PollFunc) PollOnce(ctx context.Context) ([]envelope.Envelope, error) {
	return f(ctx)
}

// Socket owns at most one live connection at a time. Failures never
// surface as errors to consumers; they drive reconnection, then fallback
// polling, and are observable through the disconnect observers.
type Socket struct {
	url       string
	sid       string
	opts      *Options
	logger    *xlog.Logger
	stats     *metrics.Transport
	retrier   *retrier
	keepalive *keepalive.KeepAlive
	dispatch  *queue.Queue

	mu        sync.Mutex
	status    Status
	closed    bool
	conn      Conn
	gen       int
	pollStop  chan struct{}
	sendQueue []envelope.Envelope

	msgObs    observer.List[envelope.Envelope]
	connObs   observer.List[struct{}]
	discObs   observer.List[error]
	statusObs observer.List[Status]
}

// New creates a socket for the given ws:// or wss:// URL. The socket does
// not dial until Connect is called.
func New(url string, options ...Option) *Socket {
	opts := newOptions(options...)
	s := &Socket{
		url:       url,
		sid:       uuid.NewString(),
		opts:      opts,
		logger:    opts.logger.With("endpoint", url),
		stats:     &metrics.Transport{},
		retrier:   newRetrier(opts.reconnectLimit, opts.reconnectWait),
		keepalive: keepalive.New(opts.pingInterval, opts.pongTimeout),
		dispatch:  queue.New(opts.dispatchSize),
		status:    StatusUnknown,
	}
	s.keepalive.OnPing(s.sendPing)
	s.keepalive.OnExpire(s.pongExpired)
	return s
}

// SessionID returns the id this socket identifies itself with.
func (s *Socket) SessionID() string {
	return s.sid
}

// Status returns the current state.
func (s *Socket) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stats returns a snapshot of the socket's transport counters.
func (s *Socket) Stats() map[string]uint64 {
	return s.stats.Snapshot()
}

// OnMessage registers an observer for inbound envelopes. Delivery is in
// arrival order, heartbeats excluded. The token unregisters via OffMessage.
func (s *Socket) OnMessage(fn func(envelope.Envelope)) int {
	return s.msgObs.Register(fn)
}

func (s *Socket) OffMessage(id int) {
	s.msgObs.Unregister(id)
}

// OnConnect registers an observer called after every successful connection.
func (s *Socket) OnConnect(fn func()) int {
	return s.connObs.Register(func(struct{}) { fn() })
}

func (s *Socket) OffConnect(id int) {
	s.connObs.Unregister(id)
}

// OnDisconnect registers an observer called with the reason whenever a
// live connection is lost.
func (s *Socket) OnDisconnect(fn func(error)) int {
	return s.discObs.Register(fn)
}

func (s *Socket) OffDisconnect(id int) {
	s.discObs.Unregister(id)
}

// OnStatus registers an observer for state transitions.
func (s *Socket) OnStatus(fn func(Status)) int {
	return s.statusObs.Register(fn)
}

func (s *Socket) OffStatus(id int) {
	s.statusObs.Unregister(id)
}

// Connect opens the connection. It is a no-op while connected, connecting,
// or closed. From fallback it attempts one fresh dial; failure drops the
// socket straight back into fallback.
func (s *Socket) Connect() {
	s.mu.Lock()
	if s.closed || s.status == StatusConnected || s.status == StatusConnecting {
		s.mu.Unlock()
		return
	}
	s.retrier.cancel()
	s.setStatusLocked(StatusConnecting)
	s.mu.Unlock()
	s.dial()
}

// Close moves the socket to its terminal state: every timer is cancelled,
// the live connection is dropped, and no automatic transition ever runs
// again.
func (s *Socket) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.retrier.cancel()
	s.stopPollLocked()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.keepalive.Stop()
	s.setStatusLocked(StatusClosed)
	s.mu.Unlock()
	s.dispatch.Close()
}

// Send writes an envelope to the live connection. While disconnected the
// configured policy applies: drop (the default) or queue until reconnect.
func (s *Socket) Send(e envelope.Envelope) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return xerr.SocketClosed
	}
	if s.status != StatusConnected {
		if s.opts.sendPolicy == QueueWhenDisconnected {
			if len(s.sendQueue) >= s.opts.sendQueueSize {
				s.mu.Unlock()
				return xerr.SendQueueIsFull
			}
			s.sendQueue = append(s.sendQueue, e)
			s.mu.Unlock()
			return nil
		}
		s.stats.Dropped.Inc()
		s.mu.Unlock()
		s.logger.Warn("send dropped", xlog.String("type", string(e.Kind)))
		return xerr.SendDropped
	}
	conn, gen := s.conn, s.gen
	s.mu.Unlock()
	if err := conn.WriteEnvelope(e); err != nil {
		s.disconnected(gen, err)
		return err
	}
	s.keepalive.Touch()
	return nil
}

// dial performs one connection attempt. Used for the initial connect and
// for every scheduled reconnect.
func (s *Socket) dial() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var hdr http.Header
	if s.opts.header != nil {
		hdr = s.opts.header()
	}
	if hdr == nil {
		hdr = http.Header{}
	}
	hdr.Set("X-Session-Id", s.sid)
	conn := s.opts.dialer(s.url, hdr)
	s.conn = conn
	s.mu.Unlock()

	err := conn.Dial()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	if err != nil {
		s.logger.Warn("dial failed", xlog.Err(err))
		s.rescheduleLocked()
		return
	}
	s.gen++
	gen := s.gen
	s.retrier.reset()
	s.stopPollLocked()
	s.setStatusLocked(StatusConnected)
	pending := s.sendQueue
	s.sendQueue = nil
	// the heartbeat arms and the reader starts before mu is released, so a
	// concurrent Close cannot slip in and leave either running on a socket
	// it already tore down
	s.keepalive.Start()
	go s.recv(conn, gen)
	if err := s.dispatch.Push(func() { s.connObs.Notify(struct{}{}) }); err != nil {
		s.logger.Debug("connect notification skipped", xlog.Err(err))
	}
	s.mu.Unlock()

	for _, e := range pending {
		if err := s.Send(e); err != nil {
			s.logger.Warn("queued send failed", xlog.Err(err))
		}
	}
}

// rescheduleLocked charges one failure to the reconnect budget and either
// arms the next dial or enters fallback. Called with mu held; releases it.
func (s *Socket) rescheduleLocked() {
	delay, ok := s.retrier.next()
	if !ok {
		s.enterFallbackLocked()
		s.mu.Unlock()
		return
	}
	s.setStatusLocked(StatusReconnecting)
	s.mu.Unlock()
	s.stats.Reconnects.Inc()
	s.logger.Info("reconnect scheduled", xlog.Duration("delay", delay), xlog.Int("attempt", s.retrier.attempts()))
	s.retrier.schedule(delay, s.dial)
}

// disconnected handles the loss of the connection identified by gen.
// Stale notifications from replaced connections are ignored.
func (s *Socket) disconnected(gen int, reason error) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.status != StatusConnected {
		s.mu.Unlock()
		return
	}
	s.keepalive.Stop()
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Warn("connection lost", xlog.Err(reason))
	s.rescheduleLocked()
	s.discObs.Notify(reason)
}

func (s *Socket) recv(conn Conn, gen int) {
	for {
		e, err := conn.ReadEnvelope()
		if err != nil {
			if errors.Is(err, xerr.MalformedEnvelope) {
				s.stats.Malformed.Inc()
				s.logger.Warn("envelope rejected", xlog.Err(err))
				continue
			}
			s.disconnected(gen, err)
			return
		}
		s.keepalive.Touch()
		switch e.Kind {
		case envelope.KindPong:
			s.keepalive.Pong()
		case envelope.KindPing:
			if err := conn.WriteEnvelope(envelope.NewPong(s.sid)); err != nil {
				s.disconnected(gen, err)
				return
			}
		default:
			s.deliver(e)
		}
	}
}

func (s *Socket) deliver(e envelope.Envelope) {
	err := s.dispatch.Push(func() {
		s.msgObs.Notify(e)
	})
	if err != nil {
		s.logger.Error("message dropped by dispatch", xlog.Err(err), xlog.String("type", string(e.Kind)))
	}
}

func (s *Socket) sendPing() {
	s.mu.Lock()
	if s.status != StatusConnected {
		s.mu.Unlock()
		return
	}
	conn, gen := s.conn, s.gen
	s.mu.Unlock()
	if err := conn.WriteEnvelope(envelope.NewPing(s.sid)); err != nil {
		s.disconnected(gen, err)
	}
}

func (s *Socket) pongExpired() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.disconnected(gen, xerr.PongTimeout)
}

// enterFallbackLocked arms the fallback poller. The first poll fires
// immediately, not after one interval. Called with mu held.
func (s *Socket) enterFallbackLocked() {
	s.setStatusLocked(StatusFallback)
	if s.opts.poller == nil {
		s.logger.Error("cannot poll", xlog.Err(xerr.PollerNotConfigured))
		return
	}
	if s.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	s.logger.Warn("reconnect budget spent, polling", xlog.Duration("interval", s.opts.pollInterval))
	go s.pollLoop(stop)
}

func (s *Socket) stopPollLocked() {
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
}

func (s *Socket) pollLoop(stop chan struct{}) {
	s.pollOnce(stop)
	ticker := time.NewTicker(s.opts.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.pollOnce(stop)
		}
	}
}

func (s *Socket) pollOnce(stop chan struct{}) {
	select {
	case <-stop:
		return
	default:
	}
	s.stats.Polls.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.pollInterval)
	defer cancel()
	envs, err := s.opts.poller.PollOnce(ctx)
	if err != nil {
		s.logger.Warn("poll failed", xlog.Err(err))
		return
	}
	for _, e := range envs {
		if e.IsHeartbeat() {
			continue
		}
		s.deliver(e)
	}
}

func (s *Socket) setStatusLocked(status Status) {
	if s.status == status {
		return
	}
	s.logger.Debug("status change", xlog.String("from", s.status.String()), xlog.String("to", status.String()))
	s.status = status
	// observers run on the dispatch queue, never under the socket lock
	if err := s.dispatch.Push(func() { s.statusObs.Notify(status) }); err != nil {
		s.logger.Debug("status notification skipped", xlog.Err(err))
	}
}
