package ember

import (
	"crypto/tls"
	"net"

	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/internal/construct"
	"github.com/indigo-web/ember/internal/pool"
	"github.com/indigo-web/ember/internal/protocol/http1"
	"github.com/indigo-web/ember/router"
	"github.com/indigo-web/ember/router/inbuilt"
	"github.com/indigo-web/ember/transport"
)

// App ties the transports, the worker pool and the protocol together. The
// zero value is not usable, go through New.
type App struct {
	cfg        *config.Config
	codecs     []codec.Codec
	listeners  []listener
	supervisor transport.Supervisor
	workers    *pool.Pool
	hooks      hooks
	err        error
}

type listener struct {
	addr string
	t    transport.Transport
}

type hooks struct {
	onStart, onStop func()
}

// New prepares an application listening on the addr via plain TCP. More
// listeners may be attached before Serve.
func New(addr string) *App {
	return &App{
		cfg:        config.Default(),
		listeners:  []listener{{addr, transport.NewTCP()}},
		supervisor: transport.NewSupervisor(),
	}
}

// Tune replaces the default config.
func (a *App) Tune(cfg *config.Config) *App {
	if cfg != nil {
		a.cfg = cfg
	}

	return a
}

// Codecs registers content codings used both for decoding request bodies and
// for compressing response ones. The registration order sets the negotiation
// preference.
func (a *App) Codecs(codecs ...codec.Codec) *App {
	a.codecs = append(a.codecs, codecs...)
	return a
}

// NotifyOnStart calls the callback once all the listeners are up.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.onStart = cb
	return a
}

// NotifyOnStop calls the callback once the app is fully down: no listeners
// accept and all the workers have finished.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.onStop = cb
	return a
}

// Listen attaches another listener transport.
func (a *App) Listen(addr string, t transport.Transport) *App {
	a.listeners = append(a.listeners, listener{addr, t})
	return a
}

// TLS attaches a TLS listener with static certificates.
func (a *App) TLS(addr string, certs ...tls.Certificate) *App {
	return a.Listen(addr, transport.NewTLS(certs))
}

// HTTPS attaches a TLS listener with a certificate loaded from the pair of
// PEM files.
func (a *App) HTTPS(addr, certFile, keyFile string) *App {
	certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		a.fail(err)
		return a
	}

	return a.TLS(addr, certificate)
}

// Serve binds every listener and runs until an error or a stop request. A nil
// router falls back to an empty inbuilt one, serving 404s.
func (a *App) Serve(r router.Router) error {
	if a.err != nil {
		return a.err
	}

	if r == nil {
		r = inbuilt.New()
	}

	registry := codecutil.NewRegistry(a.codecs...)

	a.workers = pool.New(a.cfg.Workers, func(conn net.Conn) {
		client := construct.Client(a.cfg.NET, conn)
		request := construct.Request(a.cfg, client)
		http1.New(a.cfg, r, client, request, registry).Serve()
	})

	for _, l := range a.listeners {
		if err := a.supervisor.Add(l.addr, l.t, a.workers.Dispatch); err != nil {
			a.workers.Stop()
			return err
		}
	}

	callIfSet(a.hooks.onStart)
	err := a.supervisor.Run(a.cfg.NET)
	a.workers.Stop()
	callIfSet(a.hooks.onStop)

	return err
}

// GracefulStop stops accepting new connections and lets the ones in flight
// finish. Blocks until the listeners are down; Serve returns once the workers
// drain.
func (a *App) GracefulStop() {
	a.supervisor.Stop()
}

// Stop tears the application down, hanging up on the connections currently
// being served.
func (a *App) Stop() {
	a.supervisor.Stop()
	if a.workers != nil {
		a.workers.Abort()
	}
}

func (a *App) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func callIfSet(f func()) {
	if f != nil {
		f()
	}
}
