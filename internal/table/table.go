package table

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"holdem-tafel/holdem"
	"holdem-tafel/internal/codec"
	"holdem-tafel/internal/history"
)

var ErrTableClosed = errors.New("table closed")

// Sender delivers an encoded message to one connection. Send must not
// block; a full connection drops the message and reports false.
type Sender interface {
	Send(data []byte) bool
}

type SenderFunc func(data []byte) bool

func (f SenderFunc) Send(data []byte) bool { return f(data) }

// Table owns one game engine and the connections watching it.
type Table struct {
	ID string

	game    *holdem.Game
	log     logrus.FieldLogger
	history history.Service

	mu      sync.RWMutex
	senders map[string]Sender // player id -> connection
	names   map[string]string
	closed  bool

	// hand currently being recorded
	handID    string
	handStart time.Time
	seq       uint64

	historyQueue  chan func()
	historyDone   chan struct{}
	historyClosed bool

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New creates the table and starts its engine goroutine. hist may be nil.
func New(id string, cfg holdem.Config, hist history.Service, log logrus.FieldLogger) (*Table, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("table", id)

	game, err := holdem.NewGame(cfg, nil, log)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Table{
		ID:           id,
		game:         game,
		log:          log,
		history:      hist,
		senders:      make(map[string]Sender),
		names:        make(map[string]string),
		historyQueue: make(chan func(), 256),
		historyDone:  make(chan struct{}),
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	game.Subscribe(t.onEvent)

	go t.drainHistory()
	go t.run(ctx)

	log.WithFields(logrus.Fields{
		"max_players": cfg.MaxPlayers,
		"small_blind": cfg.SmallBlind,
		"big_blind":   cfg.BigBlind,
	}).Info("table created")
	return t, nil
}

func (t *Table) run(ctx context.Context) {
	defer close(t.done)
	if err := t.game.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.log.WithError(err).Error("engine stopped")
		return
	}
	t.log.Info("engine stopped")
}

// Join seats a new player under a fresh session token.
func (t *Table) Join(name string) (string, int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", holdem.NoSeat, ErrTableClosed
	}
	name = normalizeName(name, len(t.names)+1)
	id := uuid.NewString()
	t.names[id] = name
	t.mu.Unlock()

	seat, err := t.game.Join(id, name)
	if err != nil {
		t.mu.Lock()
		delete(t.names, id)
		t.mu.Unlock()
		return "", holdem.NoSeat, err
	}
	return id, seat, nil
}

// Leave unseats the player and forgets their connection.
func (t *Table) Leave(playerID string) bool {
	t.mu.Lock()
	delete(t.senders, playerID)
	t.mu.Unlock()

	left := t.game.Leave(playerID)

	t.mu.Lock()
	delete(t.names, playerID)
	t.mu.Unlock()
	return left
}

// Act validates and submits an action. Rule violations are logged and
// returned to the caller.
func (t *Table) Act(playerID string, a holdem.Action) error {
	if t.IsClosed() {
		return ErrTableClosed
	}
	err := t.game.Submit(playerID, a)
	if err != nil && holdem.IsRuleViolation(err) {
		t.log.WithFields(logrus.Fields{
			"player": t.playerName(playerID),
			"action": a.String(),
		}).WithError(err).Warn("action rejected")
	}
	return err
}

// GameState encodes the table as playerID may see it.
func (t *Table) GameState(playerID string) ([]byte, error) {
	v, err := t.game.Snapshot(playerID)
	if err != nil {
		return nil, err
	}
	return codec.EncodeGamestate(v)
}

// Attach routes pushes for playerID to s and sends the current state.
func (t *Table) Attach(playerID string, s Sender) error {
	if _, ok := t.game.SeatOf(playerID); !ok {
		return holdem.ErrNotSeated
	}
	t.mu.Lock()
	t.senders[playerID] = s
	t.mu.Unlock()
	t.pushState(playerID, s)
	return nil
}

func (t *Table) Detach(playerID string) {
	t.mu.Lock()
	delete(t.senders, playerID)
	t.mu.Unlock()
}

func (t *Table) Game() *holdem.Game { return t.game }

func (t *Table) PlayerCount() int { return t.game.PlayerCount() }

// Stop halts the engine and waits for it and pending history writes.
func (t *Table) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		t.cancel()
		<-t.done
		t.mu.Lock()
		t.historyClosed = true
		close(t.historyQueue)
		t.mu.Unlock()
		<-t.historyDone
	})
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// onEvent runs after the engine released its lock.
func (t *Table) onEvent(e holdem.Event) {
	t.recordEvent(e)

	t.mu.RLock()
	names := make(map[string]string, len(t.names))
	for id, n := range t.names {
		names[id] = n
	}
	targets := make(map[string]Sender, len(t.senders))
	for id, s := range t.senders {
		targets[id] = s
	}
	t.mu.RUnlock()

	if e.Type != holdem.EventTurn {
		if raw, err := codec.EncodeEvent(e, names); err == nil {
			for _, s := range targets {
				s.Send(raw)
			}
		} else {
			t.log.WithError(err).Error("encode event failed")
		}
	}
	for id, s := range targets {
		t.pushState(id, s)
	}
}

func (t *Table) pushState(playerID string, s Sender) {
	raw, err := t.GameState(playerID)
	if err != nil {
		t.log.WithField("player", t.playerName(playerID)).WithError(err).Error("build gamestate failed")
		s.Send(codec.EncodeError(err.Error()))
		return
	}
	if !s.Send(raw) {
		t.log.WithField("player", t.playerName(playerID)).Warn("send buffer full, gamestate dropped")
	}
}

func (t *Table) playerName(playerID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n, ok := t.names[playerID]; ok {
		return n
	}
	return playerID
}

func normalizeName(raw string, n int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fmt.Sprintf("Speler_%d", n)
	}
	return name
}
