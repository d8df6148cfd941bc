// Package transport serves the websocket fan-out endpoint. Each
// accepted connection becomes a relay subscriber with a bounded
// outbound queue; framing, ping/pong and byte-level backpressure
// accounting all live here, outside the core pipeline.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/relay"
)

// Options configures the fan-out server.
type Options struct {
	Addr      string
	Path      string
	QueueSize int
	// IdleTimeout disconnects clients that miss pongs for this long.
	IdleTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.Path == "" {
		o.Path = "/ws"
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 20 * time.Second
	}
}

// Hub upgrades inbound connections and attaches them to the relay.
type Hub struct {
	opt      Options
	relay    *relay.Relay
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewHub wires a hub onto the given relay.
func NewHub(opt Options, rl *relay.Relay) *Hub {
	opt.withDefaults()
	return &Hub{
		opt:   opt,
		relay: rl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run serves until ctx is canceled.
func (h *Hub) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(h.opt.Path, h.serveWs)
	h.server = &http.Server{Addr: h.opt.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.server.ListenAndServe()
	}()
	logs.Infof("transport: listening on %s%s", h.opt.Addr, h.opt.Path)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "transport listen")
		}
		return nil
	}
}

func (h *Hub) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Errorf("transport: upgrade failed, err: %+v", err)
		return
	}

	client := newClient(conn, h.opt.QueueSize, h.opt.IdleTimeout)
	id := h.relay.Subscribe(client)
	logs.Infof("transport: subscriber %d connected (%d total)", id, h.relay.Count())

	go client.writePump()
	go func() {
		client.readPump()
		h.relay.Unsubscribe(id)
		client.close()
		logs.Infof("transport: subscriber %d disconnected (%d total)", id, h.relay.Count())
	}()
}
