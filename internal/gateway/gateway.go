package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"holdem-tafel/holdem"
	"holdem-tafel/internal/codec"
	"holdem-tafel/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	handshakeWait  = 15 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Wire texts shown to players.
const (
	msgInvalidUUID    = "Ongeldige UUID"
	msgInvalidMessage = "Ongeldig bericht"
	msgSignedOff      = "Je bent succesvol afgemeld."
)

// Connection is one websocket client controlling one seated player.
type Connection struct {
	ID       string
	PlayerID string
	Conn     *websocket.Conn

	gateway   *Gateway
	log       logrus.FieldLogger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Gateway accepts websocket clients for one table.
type Gateway struct {
	table    *table.Table
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64
}

// New creates a gateway. An empty allowlist accepts any origin.
func New(t *table.Table, originAllowlist []string, log logrus.FieldLogger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Gateway{
		table:       t,
		log:         log.WithField("component", "gateway"),
		connections: make(map[string]*Connection),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(originAllowlist),
	}
	return g
}

func originChecker(allowlist []string) func(r *http.Request) bool {
	if len(allowlist) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(allowlist))
	for _, o := range allowlist {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients send no origin
			return true
		}
		_, ok := allowed[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}

func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// HandleWebSocket upgrades the request and serves the connection until
// the client goes away.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("upgrade failed")
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:      connID,
		Conn:    conn,
		gateway: g,
		log:     g.log.WithField("conn", connID),
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
	g.connections[connID] = c
	total := len(g.connections)
	g.mu.Unlock()

	c.log.WithField("remote", r.RemoteAddr).Infof("client connected, total: %d", total)
	go c.serve()
}

// ConnectionCount reports the open connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// CloseAll closes every open connection; their players leave the table.
func (g *Gateway) CloseAll() {
	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c)
	}
	g.mu.RUnlock()
	for _, c := range conns {
		_ = c.Conn.Close()
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()
	c.log.Infof("client disconnected, total: %d", total)
}

// Send queues data for the write pump. It never blocks; a full or closed
// connection drops the message.
func (c *Connection) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// serve runs the handshake and then the read pump. The write pump starts
// only after registration, so handshake replies are written directly.
func (c *Connection) serve() {
	defer func() {
		c.close()
		c.gateway.removeConnection(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(handshakeWait))

	if !c.handshake() {
		return
	}
	defer func() {
		if c.gateway.table.Leave(c.PlayerID) {
			c.log.Info("player left the table")
		}
	}()

	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writePump()
	if err := c.gateway.table.Attach(c.PlayerID, c); err != nil {
		c.log.WithError(err).Warn("attach failed")
		return
	}
	c.readPump()
}

func (c *Connection) handshake() bool {
	_, msg, err := c.Conn.ReadMessage()
	if err != nil {
		c.log.WithError(err).Debug("no handshake received")
		return false
	}
	name := codec.DecodeHandshake(msg)

	id, seat, err := c.gateway.table.Join(name)
	if err != nil {
		c.log.WithError(err).Warn("join refused")
		c.writeDirect(codec.EncodeError(err.Error()))
		c.writeClose(websocket.CloseTryAgainLater, err.Error())
		return false
	}
	c.PlayerID = id
	c.log = c.log.WithFields(logrus.Fields{"player": name, "seat": seat})

	reply, err := codec.EncodeRegister(id, seat)
	if err != nil || !c.writeDirect(reply) {
		c.gateway.table.Leave(id)
		return false
	}
	c.log.Info("player registered")
	return true
}

func (c *Connection) writeDirect(data []byte) bool {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, data) == nil
}

func (c *Connection) writeClose(code int, text string) {
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

func (c *Connection) readPump() {
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("read error")
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage dispatches one client message.
func (c *Connection) handleMessage(raw []byte) {
	in, err := codec.DecodeInbound(raw)
	if errors.Is(err, codec.ErrMalformed) {
		c.log.WithError(err).Debug("malformed message")
		c.Send(codec.EncodeError(msgInvalidMessage))
		return
	}
	if in.UUID != c.PlayerID {
		c.Send(codec.EncodeError(msgInvalidUUID))
		return
	}
	if err != nil {
		c.Send(codec.EncodeError(msgInvalidMessage))
		return
	}

	switch in.Type {
	case codec.TypeAction:
		c.handleAction(in)
	case codec.TypeRequestGamestate:
		raw, err := c.gateway.table.GameState(c.PlayerID)
		if err != nil {
			c.Send(codec.EncodeError(err.Error()))
			return
		}
		c.Send(raw)
	case codec.TypeDisconnect:
		c.gateway.table.Leave(c.PlayerID)
		c.log.Info("player signed off")
		// keep reading until the write pump closes the socket
		c.writeAndClose(codec.EncodeInfo(msgSignedOff))
	default:
		c.Send(codec.EncodeError(fmt.Sprintf("onbekend berichttype: %s", in.Type)))
	}
}

func (c *Connection) handleAction(in codec.Inbound) {
	a, err := in.ToAction()
	if err != nil {
		c.Send(codec.EncodeError(err.Error()))
		return
	}
	if err := c.gateway.table.Act(c.PlayerID, a); err != nil {
		// rule violations are already logged by the table
		if !holdem.IsRuleViolation(err) {
			c.log.WithError(err).Debug("action refused")
		}
		c.Send(codec.EncodeError(err.Error()))
	}
}

// writeAndClose queues a last message; the write pump sends it and then
// closes the socket.
func (c *Connection) writeAndClose(data []byte) {
	c.gateway.table.Detach(c.PlayerID)
	c.Send(data)
	c.Send(nil)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if message == nil {
				c.writeClose(websocket.CloseNormalClosure, "")
				return
			}
			if !c.writeDirect(message) {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
