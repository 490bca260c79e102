package client

import (
	"context"
	"sync"

	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/transport"
)

// persistConn is an established connection along with its per-connection
// response parser, kept between exchanges to the same origin.
type persistConn struct {
	client transport.Client
	parser *responseParser
	// proxied reports whether requests on this connection must use the
	// absolute form of the target.
	proxied bool
}

func newPersistConn(client transport.Client, codecs *codecutil.Registry, cfg Config, proxied bool) *persistConn {
	return &persistConn{
		client:  client,
		parser:  newResponseParser(client, codecs, cfg.MaxHeadSize, cfg.MaxBodySize),
		proxied: proxied,
	}
}

func (p *persistConn) Close() {
	_ = p.client.Close()
}

// connPool keeps idle connections keyed by origin (scheme://host:port, plus
// the proxy if one is in use) and bounds the number of concurrently checked
// out connections per key.
type connPool struct {
	mu         sync.Mutex
	idle       map[string][]*persistConn
	slots      map[string]chan struct{}
	maxPerHost int
	wait       bool
	closed     bool
}

func newConnPool(maxPerHost int, wait bool) *connPool {
	return &connPool{
		idle:       make(map[string][]*persistConn),
		slots:      make(map[string]chan struct{}),
		maxPerHost: maxPerHost,
		wait:       wait,
	}
}

// checkout claims a connection slot of the key, blocking until one frees up
// or the context expires. Under the fail policy a saturated key results in
// ErrPoolExhausted right away. Every successful checkout must be paired with
// a release.
func (p *connPool) checkout(ctx context.Context, key string) error {
	p.mu.Lock()
	slots, found := p.slots[key]
	if !found {
		slots = make(chan struct{}, p.maxPerHost)
		p.slots[key] = slots
	}
	p.mu.Unlock()

	if !p.wait {
		select {
		case slots <- struct{}{}:
			return nil
		default:
			return ErrPoolExhausted
		}
	}

	select {
	case slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *connPool) release(key string) {
	p.mu.Lock()
	slots := p.slots[key]
	p.mu.Unlock()

	<-slots
}

func (p *connPool) get(key string) *persistConn {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns := p.idle[key]
	if len(conns) == 0 {
		return nil
	}

	conn := conns[len(conns)-1]
	p.idle[key] = conns[:len(conns)-1]

	return conn
}

func (p *connPool) put(key string, conn *persistConn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.idle[key]) >= p.maxPerHost {
		conn.Close()
		return
	}

	p.idle[key] = append(p.idle[key], conn)
}

func (p *connPool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for key, conns := range p.idle {
		for _, conn := range conns {
			conn.Close()
		}

		delete(p.idle, key)
	}
}
