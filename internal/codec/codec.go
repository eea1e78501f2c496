package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"holdem-tafel/holdem"
)

// Client -> server message types.
const (
	TypeJoin             = "join"
	TypeAction           = "action"
	TypeRequestGamestate = "request_gamestate"
	TypeDisconnect       = "disconnect"

	// older clients send the request with a space
	legacyRequestGamestate = "request gamestate"
)

// Server -> client message types.
const (
	TypeRegister  = "register"
	TypeGamestate = "gamestate"
	TypeError     = "error"
	TypeInfo      = "info"
	TypeEvent     = "event"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrMissingType = errors.New("message has no type")
)

// Inbound is any message a client sends. Fields unused by a type are zero.
type Inbound struct {
	Type   string  `json:"type"`
	UUID   string  `json:"uuid,omitempty"`
	Naam   *string `json:"naam,omitempty"`
	Action string  `json:"action,omitempty"`
	Amount int64   `json:"amount,omitempty"`
}

// DecodeHandshake reads the first message of a connection. Any object
// carrying a string naam counts as a join; everything else yields an
// empty name so the caller can pick a default.
func DecodeHandshake(raw []byte) string {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil || in.Naam == nil {
		return ""
	}
	return *in.Naam
}

// DecodeInbound parses a client message. On ErrMissingType the other
// fields are still returned so the sender's identity can be checked.
func DecodeInbound(raw []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if in.Type == "" {
		return in, ErrMissingType
	}
	if in.Type == legacyRequestGamestate {
		in.Type = TypeRequestGamestate
	}
	return in, nil
}

// ToAction maps an action message onto the engine's action.
func (in Inbound) ToAction() (holdem.Action, error) {
	at, err := holdem.ParseActionType(in.Action)
	if err != nil {
		return holdem.Action{}, err
	}
	a := holdem.Action{Type: at}
	if at == holdem.ActionRaise {
		if in.Amount <= 0 {
			return holdem.Action{}, fmt.Errorf("%w: raise needs a positive amount", ErrMalformed)
		}
		a.Amount = in.Amount
	}
	return a, nil
}

func EncodeJoin(name string) ([]byte, error) {
	return json.Marshal(Inbound{Type: TypeJoin, Naam: &name})
}

func EncodeAction(uuid string, a holdem.Action) ([]byte, error) {
	in := Inbound{Type: TypeAction, UUID: uuid, Action: a.Type.String()}
	if a.Type == holdem.ActionRaise {
		in.Amount = a.Amount
	}
	return json.Marshal(in)
}

func EncodeRequest(msgType, uuid string) ([]byte, error) {
	return json.Marshal(Inbound{Type: msgType, UUID: uuid})
}

// Envelope is decoded first to route a server message by type.
type Envelope struct {
	Type string `json:"type"`
}

type Register struct {
	Type        string `json:"type"`
	UUID        string `json:"uuid"`
	Stoelnummer int    `json:"stoelnummer"`
}

type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func EncodeRegister(uuid string, seat int) ([]byte, error) {
	return json.Marshal(Register{Type: TypeRegister, UUID: uuid, Stoelnummer: seat})
}

func EncodeError(msg string) []byte {
	b, _ := json.Marshal(Notice{Type: TypeError, Message: msg})
	return b
}

func EncodeInfo(msg string) []byte {
	b, _ := json.Marshal(Notice{Type: TypeInfo, Message: msg})
	return b
}

// DecodeServer returns the type of a server message.
func DecodeServer(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", ErrMissingType
	}
	return env.Type, nil
}
