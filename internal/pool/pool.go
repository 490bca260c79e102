package pool

import (
	"net"
	"sync"

	"github.com/indigo-web/ember/config"
)

// Pool is a bounded set of workers serving accepted connections. On saturation
// the behavior is explicit: either the connection waits in a limited backlog, or
// it is rejected (closed) right away. There is no unbounded goroutine growth.
type Pool struct {
	queue   chan net.Conn
	policy  config.BackpressurePolicy
	serve   func(net.Conn)
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
	liveMu  sync.Mutex
	live    map[net.Conn]struct{}
}

// New spawns cfg.PoolSize workers serving connections via the passed callback.
// The callback must not close the connection, the pool owns it.
func New(cfg config.Workers, serve func(net.Conn)) *Pool {
	backlog := cfg.Backlog
	if cfg.Policy == config.Reject {
		backlog = 0
	}

	p := &Pool{
		queue:  make(chan net.Conn, backlog),
		policy: cfg.Policy,
		serve:  serve,
		live:   make(map[net.Conn]struct{}),
	}

	p.wg.Add(cfg.PoolSize)
	for range cfg.PoolSize {
		go p.worker()
	}

	return p
}

// Dispatch hands the connection over to a free worker. Under the Reject policy a
// saturated pool closes the connection immediately; under Queue the connection is
// parked in the backlog, and closed only if the backlog is full too. The call
// never blocks the accept loop.
func (p *Pool) Dispatch(conn net.Conn) {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		_ = conn.Close()
		return
	}

	select {
	case p.queue <- conn:
	default:
		_ = conn.Close()
	}
}

// Stop lets the already queued connections be served, then releases the workers.
// Dispatching after Stop closes the connection.
func (p *Pool) Stop() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}

	p.closed = true
	close(p.queue)
	p.closeMu.Unlock()

	p.wg.Wait()
}

// Abort closes the connections currently being served, unblocking their
// workers. Meant for an immediate shutdown; a graceful one goes through Stop
// alone.
func (p *Pool) Abort() {
	p.liveMu.Lock()
	for conn := range p.live {
		_ = conn.Close()
	}
	p.liveMu.Unlock()

	p.Stop()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for conn := range p.queue {
		p.liveMu.Lock()
		p.live[conn] = struct{}{}
		p.liveMu.Unlock()

		p.serve(conn)
		_ = conn.Close()

		p.liveMu.Lock()
		delete(p.live, conn)
		p.liveMu.Unlock()
	}
}
