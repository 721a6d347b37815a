// Package inspector exposes the editor's mutation stream to external
// inspector UIs over websocket. It is a read-only diagnostic surface: frames
// flow out, nothing flows in.
package inspector

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/history"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/plugin"
	"github.com/sceneforge/sceneforge/internal/core/scene"
	"github.com/sceneforge/sceneforge/internal/plugins/diagnostics"
	"github.com/sceneforge/sceneforge/pkg/concurrent"
	"github.com/sceneforge/sceneforge/pkg/sequence"
)

// PluginID is the id the inspector registers under.
const PluginID = "inspector"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frame is one message on the inspector stream. Digest is the graph structure
// digest after the change, letting a client detect missed frames cheaply.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	Digest  uint64 `json:"digest"`
}

// Inspector is the plugin instance.
type Inspector struct {
	addr   string
	logger log.Log
	graph  *scene.Graph

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	server   *http.Server
	listener net.Listener
	subs     []bus.Subscription
}

var _ plugin.Plugin = (*Inspector)(nil)

// New creates an inspector serving on addr.
func New(addr string) *Inspector {
	return &Inspector{
		addr:    addr,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (i *Inspector) ID() string      { return PluginID }
func (i *Inspector) Name() string    { return "Scene Inspector" }
func (i *Inspector) Version() string { return "1.0.0" }

// Dependencies: diagnostics must be up first so delivery failures surface in
// the log while the inspector streams.
func (i *Inspector) Dependencies() []string { return []string{diagnostics.PluginID} }

func (i *Inspector) Initialize(_ context.Context, pctx *plugin.Context) error {
	i.logger = pctx.Logger
	if i.logger == nil {
		i.logger = log.Nop()
	}
	i.graph = pctx.Scene

	for _, et := range []string{
		scene.EventObjectAdded,
		scene.EventObjectRemoved,
		history.EventPropertyUpdated,
	} {
		sub, err := pctx.Bus.Subscribe(et, i.forward)
		if err != nil {
			return err
		}
		i.subs = append(i.subs, sub)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", i.handleInspect)
	i.server = &http.Server{Handler: mux}

	ln, err := net.Listen("tcp", i.addr)
	if err != nil {
		return err
	}
	i.listener = ln

	go func() {
		if err := i.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			i.logger.Error("inspector server stopped", log.Error(err))
		}
	}()
	i.logger.Info("inspector listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when configured with port 0.
func (i *Inspector) Addr() string {
	if i.listener == nil {
		return i.addr
	}
	return i.listener.Addr().String()
}

func (i *Inspector) Dispose(ctx context.Context) error {
	for _, sub := range i.subs {
		_ = sub.Cancel()
	}
	i.subs = nil

	i.mu.Lock()
	for conn := range i.clients {
		_ = conn.Close()
	}
	i.clients = make(map[*websocket.Conn]struct{})
	i.mu.Unlock()

	if i.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return i.server.Shutdown(shutdownCtx)
}

// ClientCount returns the number of attached inspector clients.
func (i *Inspector) ClientCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.clients)
}

func (i *Inspector) handleInspect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Warn("inspector upgrade failed", log.Error(err))
		return
	}
	i.mu.Lock()
	i.clients[conn] = struct{}{}
	i.mu.Unlock()
	i.logger.Debug("inspector client attached", log.String("remote", conn.RemoteAddr().String()))

	// The stream is one-way; reads only detect the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				i.drop(conn)
				return
			}
		}
	}()
}

// forward turns a core event into an inspector frame and fans it out to every
// attached client. A broken client is dropped, never allowed to fail the
// publishing mutation.
func (i *Inspector) forward(e bus.Event) error {
	i.mu.Lock()
	if len(i.clients) == 0 {
		i.mu.Unlock()
		return nil
	}
	conns := make([]*websocket.Conn, 0, len(i.clients))
	for conn := range i.clients {
		conns = append(conns, conn)
	}
	i.mu.Unlock()

	frame := Frame{Type: e.Type(), Payload: framePayload(e.Data()), Digest: i.graph.Digest()}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	_ = concurrent.Concurrent(sequence.From(conns), func(conn *websocket.Conn) error {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			i.drop(conn)
		}
		return nil
	})
	return nil
}

func (i *Inspector) drop(conn *websocket.Conn) {
	i.mu.Lock()
	delete(i.clients, conn)
	i.mu.Unlock()
	_ = conn.Close()
}

// framePayload flattens core payloads into wire-friendly shapes; node
// pointers become ids.
func framePayload(data any) any {
	switch p := data.(type) {
	case scene.ObjectAdded:
		return map[string]any{"id": p.Object.ID, "name": p.Object.Name, "parent": p.Parent.ID}
	case scene.ObjectRemoved:
		return map[string]any{"id": p.Object.ID}
	case history.PropertyUpdated:
		return map[string]any{
			"id":       p.EntityID,
			"property": p.Property,
			"oldValue": p.OldValue,
			"newValue": p.NewValue,
		}
	default:
		return p
	}
}
