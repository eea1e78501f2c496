// Command tafel is a terminal client for the table server.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"

	"holdem-tafel/internal/codec"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8000/ws", "server websocket address")
	name := flag.String("name", "", "display name at the table")
	flag.Parse()

	if *name == "" {
		*name, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Naam").Show()
		pterm.Println()
	}

	if err := run(*addr, *name); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(addr, name string) error {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	join, err := codec.EncodeJoin(name)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	reg, err := readRegister(conn)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Aangemeld op stoel %d", reg.Stoelnummer)
	pterm.Info.Println(helpText)

	c := &session{conn: conn, uuid: reg.UUID, seat: reg.Stoelnummer}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readLoop()
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				line = "quit"
			}
			msg, err := parseCommand(line, c.uuid)
			if errors.Is(err, errQuit) {
				bye, _ := codec.EncodeRequest(codec.TypeDisconnect, c.uuid)
				_ = c.write(bye)
				<-done
				return nil
			}
			if err != nil {
				pterm.Warning.Println(err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := c.write(msg); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func readRegister(conn *websocket.Conn) (codec.Register, error) {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return codec.Register{}, fmt.Errorf("read register: %w", err)
	}
	typ, err := codec.DecodeServer(raw)
	if err != nil {
		return codec.Register{}, err
	}
	switch typ {
	case codec.TypeRegister:
		var reg codec.Register
		err := json.Unmarshal(raw, &reg)
		return reg, err
	case codec.TypeError:
		var n codec.Notice
		_ = json.Unmarshal(raw, &n)
		return codec.Register{}, fmt.Errorf("server refused: %s", n.Message)
	}
	return codec.Register{}, fmt.Errorf("unexpected %s before register", typ)
}

type session struct {
	conn *websocket.Conn
	uuid string
	seat int

	writeMu sync.Mutex
}

func (s *session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pterm.Error.Printfln("verbinding verbroken: %v", err)
			}
			return
		}
		s.handle(raw)
	}
}

func (s *session) handle(raw []byte) {
	typ, err := codec.DecodeServer(raw)
	if err != nil {
		pterm.Warning.Printfln("onleesbaar bericht: %v", err)
		return
	}
	switch typ {
	case codec.TypeGamestate:
		gs, err := codec.DecodeGamestate(raw)
		if err != nil {
			pterm.Warning.Println(err)
			return
		}
		pterm.Println(renderState(gs, s.seat))
		if gs.AanDeBeurt != nil && *gs.AanDeBeurt == s.seat {
			pterm.Info.Println("Jij bent aan de beurt")
		}
	case codec.TypeEvent:
		var ev codec.EventMessage
		if json.Unmarshal(raw, &ev) == nil {
			if text := eventText(ev); text != "" {
				pterm.Info.Println(text)
			}
		}
	case codec.TypeError, codec.TypeInfo:
		var n codec.Notice
		_ = json.Unmarshal(raw, &n)
		if typ == codec.TypeError {
			pterm.Error.Println(n.Message)
		} else {
			pterm.Info.Println(n.Message)
		}
	}
}
