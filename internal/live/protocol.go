// Package live runs the search-as-you-type channel over a WebSocket. The browser
// sends raw input events; the server debounces them, rewrites the URL and streams
// back rendered result fragments, dropping any that a newer request superseded.
package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"finitefield.org/cinema-web/internal/query"
)

// Client to server message types.
const (
	TypeInit   = "init"
	TypeSearch = "search"
	TypeGenre  = "genre"
	TypeFilter = "filter"
	TypePage   = "page"
)

// Server to client message types.
const (
	TypeURL     = "url"
	TypeLoading = "loading"
	TypeResults = "results"
	TypeError   = "error"
)

// Inbound is a client message. Genre is a raw value so an explicit null can mean
// "all genres".
type Inbound struct {
	Type   string          `json:"type"`
	URL    string          `json:"url,omitempty"`
	Query  string          `json:"query,omitempty"`
	Genre  json.RawMessage `json:"genre,omitempty"`
	Filter string          `json:"filter,omitempty"`
	Page   int             `json:"page,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation,omitempty"`
	URL        string `json:"url,omitempty"`
	Navigation string `json:"navigation,omitempty"`
	HTML       string `json:"html,omitempty"`
	Message    string `json:"message,omitempty"`
}

var errUnknownType = errors.New("live: unknown message type")

// GenreID decodes the genre field; a missing field or null selects all genres.
func (m Inbound) GenreID() (*int, error) {
	if len(m.Genre) == 0 || string(m.Genre) == "null" {
		return nil, nil
	}
	var id int
	if err := json.Unmarshal(m.Genre, &id); err != nil {
		return nil, fmt.Errorf("live: genre %s: %w", m.Genre, err)
	}
	return &id, nil
}

// Next applies the immediate actions to s. Search is handled separately because
// it is debounced.
func (m Inbound) Next(s query.State) (query.State, error) {
	switch m.Type {
	case TypeGenre:
		id, err := m.GenreID()
		if err != nil {
			return s, err
		}
		return s.SelectGenre(id), nil
	case TypeFilter:
		return s.SelectFilter(query.ParseFilter(m.Filter)), nil
	case TypePage:
		return s.GotoPage(m.Page), nil
	default:
		return s, fmt.Errorf("%w: %q", errUnknownType, m.Type)
	}
}
