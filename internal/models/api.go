// Package models holds the JSON bodies of the REST API.
package models

import (
	"encoding/json"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
)

// ProgramList is the answer to GET /program. Active is null when no program
// runs.
type ProgramList struct {
	Programs []string `json:"programs"`
	Active   *string  `json:"active"`
}

// ProgramRequest is the body of POST /program. Start names the program to
// activate. When the stop key is present, Stop names the program to stop and
// an empty or null value stops whatever is active.
type ProgramRequest struct {
	Token   string
	Start   *string
	HasStop bool
	Stop    string
}

func (r *ProgramRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["token"]; ok {
		if err := json.Unmarshal(v, &r.Token); err != nil {
			return err
		}
	}
	if v, ok := raw["start"]; ok && string(v) != "null" {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return err
		}
		r.Start = &name
	}
	if v, ok := raw["stop"]; ok {
		r.HasStop = true
		// false, null and "" all mean "stop the active program"
		var name any
		if err := json.Unmarshal(v, &name); err != nil {
			return err
		}
		if s, ok := name.(string); ok {
			r.Stop = s
		}
	}
	return nil
}

// LowLevelRequest is the body of POST /lowlevel/:method. Arguments stays raw
// so the handler can tell a missing list from a malformed one.
type LowLevelRequest struct {
	Token     string           `json:"token"`
	Arguments json.RawMessage  `json:"arguments"`
	Options   endpoint.Options `json:"options"`
}

// Result wraps every action outcome.
type Result struct {
	Result any `json:"result"`
}

// TokenRequest authenticates bodyless administrative calls.
type TokenRequest struct {
	Token string `json:"token"`
}
