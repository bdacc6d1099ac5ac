// Package trace runs the interactive exploration pipeline: introspection on
// Update, and query, extraction, filtering and figure assembly on Plot.
package trace

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aevon-lab/tracelens/internal/core/storage/pool"
	"github.com/aevon-lab/tracelens/internal/preset"
)

var (
	// ErrMissingInput marks a form that lacks or garbles a required field.
	ErrMissingInput = errors.New("missing input")

	// ErrNoData marks a plot request that produced nothing to show.
	ErrNoData = errors.New("no data")
)

// MatchPrefix prefixes form fields that pin an identity key to a value.
const MatchPrefix = "match--"

// Action is the button a form post carries.
type Action int

const (
	ActionNone Action = iota
	ActionUpdate
	ActionPlot
)

// Form is the submitted plot form.
type Form struct {
	IP     string            `json:"ip"`
	Port   int               `json:"port"`
	DB     string            `json:"db"`
	Type   string            `json:"type"`
	FCoeff string            `json:"fCoeff"`
	Filter string            `json:"filter"`
	Group  []string          `json:"group"`
	DataX  []string          `json:"datax"`
	XAxis  string            `json:"xaxis"`
	YAxis  string            `json:"yaxis"`
	Match  map[string]string `json:"match,omitempty"`
}

// Target is the store the form points at.
func (f Form) Target() pool.Target {
	return pool.Target{Host: f.IP, Port: f.Port, DB: f.DB}
}

// Selection is the client-held exploration state: the last submitted form
// and what the last Update discovered about the collection.
type Selection struct {
	Form        Form             `json:"form"`
	IDKeys      []string         `json:"idKeys"`
	ValueKeys   []string         `json:"valKeys"`
	IDKeyValues map[string][]any `json:"idKeyVals"`
}

// WithForm returns a copy of s holding f.
func (s Selection) WithForm(f Form) Selection {
	s.Form = f
	return s
}

// ParseForm reads a form post. Unknown fields are ignored.
func ParseForm(values url.Values) (Form, Action, error) {
	f := Form{
		IP:     strings.TrimSpace(values.Get("ip")),
		DB:     strings.TrimSpace(values.Get("db")),
		Type:   values.Get("type"),
		FCoeff: strings.TrimSpace(values.Get("fCoeff")),
		Filter: values.Get("filter"),
		Group:  nonEmpty(values["group"]),
		DataX:  nonEmpty(values["datax"]),
		XAxis:  strings.TrimSpace(values.Get("xaxis")),
		YAxis:  strings.TrimSpace(values.Get("yaxis")),
	}

	if raw := strings.TrimSpace(values.Get("port")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 0 || port > 65535 {
			return f, ActionNone, fmt.Errorf("%w: invalid port %q", ErrMissingInput, raw)
		}
		f.Port = port
	}

	for key, vals := range values {
		if !strings.HasPrefix(key, MatchPrefix) || len(vals) == 0 {
			continue
		}
		field := strings.TrimPrefix(key, MatchPrefix)
		if field == "" {
			continue
		}
		if f.Match == nil {
			f.Match = make(map[string]string)
		}
		f.Match[field] = vals[0]
	}

	action := ActionNone
	switch {
	case values.Get("update") == "Update":
		action = ActionUpdate
	case values.Get("plot") == "Plot":
		action = ActionPlot
	}
	return f, action, nil
}

// FormFromPreset fills a form from a preset, keeping the connection fields of conn.
func FormFromPreset(p preset.Preset, conn Form) Form {
	f := Form{
		IP:     conn.IP,
		Port:   conn.Port,
		DB:     conn.DB,
		Type:   p.Type,
		FCoeff: p.FCoeff,
		Filter: p.Filter,
		Group:  append([]string(nil), p.Group...),
		DataX:  append([]string(nil), p.DataX...),
		XAxis:  p.XAxis,
		YAxis:  p.YAxis,
	}
	if len(p.Match) > 0 {
		f.Match = make(map[string]string, len(p.Match))
		for k, v := range p.Match {
			f.Match[k] = v
		}
	}
	return f
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
