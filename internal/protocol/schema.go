package protocol

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Messages maps a schema name to a zero value of each wire message.
func Messages() map[string]any {
	return map[string]any{
		"hello":   &HelloMsg{},
		"welcome": &WelcomeMsg{},
		"cmd":     &CmdMsg{},
		"ack":     &AckMsg{},
		"events":  &EventsMsg{},
		"state":   &StateMsg{},
	}
}

// Schema reflects the JSON schema of a message. Fields without omitempty are
// required and unknown properties are rejected.
func Schema(v any) ([]byte, error) {
	r := jsonschema.Reflector{}
	s := r.Reflect(v)
	s.Title = "gridfactory " + Version
	return json.MarshalIndent(s, "", "  ")
}
