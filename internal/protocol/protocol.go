package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server events
const (
	EventJoin        = "join"
	EventEdit        = "edit"
	EventSetLanguage = "set-language"
	EventSetTheme    = "set-theme"
)

// Server -> client events
const (
	EventSnapshot        = "snapshot"
	EventPeerJoined      = "peer-joined"
	EventPeerLeft        = "peer-left"
	EventContentChanged  = "content-changed"
	EventLanguageChanged = "language-changed"
	EventThemeChanged    = "theme-changed"
	EventError           = "error"
)

// Returned when an inbound payload is missing a required field or is not
// valid JSON
var ErrBadPayload = errors.New("bad payload")

// A single framed event on the wire
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
}

type EditPayload struct {
	Content string `json:"content"`
}

type LanguagePayload struct {
	Language string `json:"language"`
}

type ThemePayload struct {
	Theme string `json:"theme"`
}

type SnapshotPayload struct {
	Content  string `json:"content"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
	RoomID   string `json:"roomId"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Builds an outbound envelope. Payloads are plain structs, so marshaling
// cannot fail.
func Make(event string, payload any) Envelope {
	data, _ := json.Marshal(payload)
	return Envelope{Event: event, Data: data}
}

// Parses a raw inbound frame into an envelope
func ParseFrame(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrBadPayload)
	}
	return env, nil
}

func DecodeJoin(data json.RawMessage) (JoinPayload, error) {
	var raw struct {
		RoomID   string  `json:"roomId"`
		Username *string `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return JoinPayload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if raw.Username == nil || *raw.Username == "" {
		return JoinPayload{}, fmt.Errorf("%w: username is required", ErrBadPayload)
	}
	return JoinPayload{RoomID: raw.RoomID, Username: *raw.Username}, nil
}

func DecodeEdit(data json.RawMessage) (EditPayload, error) {
	var raw struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EditPayload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if raw.Content == nil {
		return EditPayload{}, fmt.Errorf("%w: content is required", ErrBadPayload)
	}
	return EditPayload{Content: *raw.Content}, nil
}

func DecodeLanguage(data json.RawMessage) (LanguagePayload, error) {
	var raw struct {
		Language *string `json:"language"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return LanguagePayload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if raw.Language == nil || *raw.Language == "" {
		return LanguagePayload{}, fmt.Errorf("%w: language is required", ErrBadPayload)
	}
	return LanguagePayload{Language: *raw.Language}, nil
}

func DecodeTheme(data json.RawMessage) (ThemePayload, error) {
	var raw struct {
		Theme *string `json:"theme"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ThemePayload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if raw.Theme == nil || *raw.Theme == "" {
		return ThemePayload{}, fmt.Errorf("%w: theme is required", ErrBadPayload)
	}
	return ThemePayload{Theme: *raw.Theme}, nil
}
