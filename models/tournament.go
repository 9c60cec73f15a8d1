package models

import "fmt"

// Standing is one player's result in a single tournament. Standings are not
// stored on their own, they live inside the owning Tournament document.
type Standing struct {
	Name  string  `json:"name"`
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}

// Tournament is one materialized occurrence of a template on the remote host.
// The tuple (User, TournamentSet, Template, StartsAt) is the identity that
// guards against creating the same calendar occurrence twice.
type Tournament struct {
	ID            string         `json:"id"`
	User          string         `json:"user"`
	TournamentSet string         `json:"tournament_set"`
	Template      string         `json:"template"`
	Password      string         `json:"password,omitempty"`
	StartsAt      int64          `json:"startTimestamp"`
	Created       int64          `json:"created"`
	StatsSynced   int64          `json:"stats_synced,omitempty"`
	Standings     []Standing     `json:"standings,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// Kind reports the tournament system as recorded by the host on creation.
// Older swiss records carry no system field at all, hence the default.
func (t *Tournament) Kind() string {
	if t.Fields != nil {
		if s, ok := t.Fields["system"].(string); ok && s != "" {
			return s
		}
	}
	return KindSwiss
}

// DisplayName falls back through the host's name fields down to the id.
func (t *Tournament) DisplayName() string {
	if t.Fields != nil {
		if s, ok := t.Fields["fullName"].(string); ok && s != "" {
			return s
		}
		if s, ok := t.Fields["name"].(string); ok && s != "" {
			return s
		}
	}
	return t.ID
}

// URL is the public address of the tournament on the host.
func (t *Tournament) URL() string {
	if t.Kind() == KindArena {
		return fmt.Sprintf("https://lichess.org/tournament/%s", t.ID)
	}
	return fmt.Sprintf("https://lichess.org/swiss/%s", t.ID)
}
