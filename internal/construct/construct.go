package construct

import (
	"net"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/ember/transport"
)

// Request assembles a request instance with all the storages preallocated
// according to the config.
func Request(cfg *config.Config, client transport.Client) *http.Request {
	headers := kv.NewPrealloc(cfg.Headers.Number.Default)
	params := kv.New()
	vars := kv.NewPrealloc(cfg.URI.VarsPrealloc)
	body := http.NewBody(cfg.Body)
	response := http.NewResponse()

	return http.NewRequest(cfg, response, client, body, headers, params, vars)
}

// Client wraps a bare connection into a timeout-bounded transport client.
func Client(cfg config.NET, conn net.Conn) transport.Client {
	return transport.NewClient(conn, cfg.ReadTimeout, cfg.WriteTimeout, make([]byte, cfg.ReadBufferSize))
}
