// Package preview serves captured frames to browsers and tools over HTTP.
// It is a downstream consumer of the capture loop and never touches the
// native backend.
package preview

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soocke/cursorcast-go/domain/capture"
)

const (
	headerSize   = 8
	clientBuffer = 4
	writeTimeout = 2 * time.Second
	pingInterval = 25 * time.Second
)

// EncodeMessage frames f as [txid u32][width u16][height u16][rgb565...],
// all little-endian.
func EncodeMessage(f capture.Frame) []byte {
	msg := make([]byte, headerSize+len(f.Pixels))
	binary.LittleEndian.PutUint32(msg[0:], f.TxID)
	binary.LittleEndian.PutUint16(msg[4:], uint16(f.Width))
	binary.LittleEndian.PutUint16(msg[6:], uint16(f.Height))
	copy(msg[headerSize:], f.Pixels)
	return msg
}

// Server broadcasts every published frame to connected WebSocket clients and
// keeps the latest one for /snapshot.png.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  *capture.Frame
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewServer returns a server with no clients.
func NewServer(logger *slog.Logger) *Server {
	return &Server{
		logger:   logger,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 64 * 1024},
		clients:  make(map[*client]struct{}),
	}
}

// Handler exposes /frames and /snapshot.png.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", s.serveFrames)
	mux.HandleFunc("/snapshot.png", s.serveSnapshot)
	return mux
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish stores f as the latest frame and queues it for every client.
// Slow clients drop frames instead of stalling the caller.
func (s *Server) Publish(f capture.Frame) {
	msg := EncodeMessage(f)
	s.mu.Lock()
	s.latest = &f
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	s.mu.Unlock()
}

// Consume publishes frames until ctx is done or frames is closed.
func (s *Server) Consume(ctx context.Context, frames <-chan capture.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			s.Publish(f)
		}
	}
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	if s.logger != nil {
		s.logger.Info("preview listening", "addr", addr)
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

func (s *Server) serveFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("preview upgrade failed", "error", err)
		}
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer), done: make(chan struct{})}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Debug("preview client connected", "remote", r.RemoteAddr)
	}

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client messages and detects disconnects.
func (s *Server) readLoop(c *client) {
	defer s.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer s.remove(c)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// serveSnapshot renders the latest frame as PNG. Optional max_w/max_h query
// parameters downscale it.
func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}
	img, err := capture.DecodeRGB565(latest.Pixels, latest.Width, latest.Height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	maxW, _ := strconv.Atoi(r.URL.Query().Get("max_w"))
	maxH, _ := strconv.Atoi(r.URL.Query().Get("max_h"))
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaleToFit(img, maxW, maxH)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
