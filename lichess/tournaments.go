package lichess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nimven/autotourney/models"
)

// teamField carries the team a swiss tournament belongs to; the host wants it
// in the URL, not the form.
const teamField = "conditions.teamMember.teamId"

// CreateTournament creates one tournament of the given kind. fields hold the
// host's own field names (already shaped per kind: start time in
// epoch-milliseconds, arena clock as decimal-minutes string, swiss clock as a
// nested seconds object). The returned map is the host's description of the
// created tournament.
func (c *Client) CreateTournament(ctx context.Context, token, kind string, fields map[string]any) (map[string]any, error) {
	var path string
	switch kind {
	case models.KindArena:
		path = "/api/tournament"
	case models.KindSwiss:
		teamID, _ := fields[teamField].(string)
		if teamID == "" {
			return nil, &Error{Code: http.StatusBadRequest, Message: "swiss tournament requires a team"}
		}
		path = "/api/swiss/new/" + teamID
	default:
		return nil, &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf("unknown tournament type %q", kind)}
	}

	form := url.Values{}
	for key, value := range fields {
		if kind == models.KindSwiss && key == teamField {
			continue
		}
		encodeField(form, key, value)
	}

	raw, err := c.do(ctx, http.MethodPost, path, token, nil, form)
	if err != nil {
		return nil, err
	}

	created := map[string]any{}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode created tournament: %w", err)
	}
	return created, nil
}

// GetTournament fetches the full snapshot of an arena or swiss tournament.
func (c *Client) GetTournament(ctx context.Context, token, kind, id string) (map[string]any, error) {
	var path string
	switch kind {
	case models.KindArena:
		path = "/api/tournament/" + id
	case models.KindSwiss:
		path = "/api/swiss/" + id
	default:
		return nil, &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf("unknown tournament type %q", kind)}
	}

	raw, err := c.do(ctx, http.MethodGet, path, token, nil, nil)
	if err != nil {
		return nil, err
	}

	tournament := map[string]any{}
	if err := json.Unmarshal(raw, &tournament); err != nil {
		return nil, fmt.Errorf("decode tournament: %w", err)
	}
	return tournament, nil
}

// GetArenaStandings returns the player list of an arena snapshot.
func (c *Client) GetArenaStandings(ctx context.Context, token, id string) ([]models.Standing, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/tournament/"+id, token, nil, nil)
	if err != nil {
		return nil, err
	}

	var snapshot struct {
		Standing struct {
			Players []models.Standing `json:"players"`
		} `json:"standing"`
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode arena standings: %w", err)
	}
	return snapshot.Standing.Players, nil
}

// GetSwissStandings returns up to limit ranked players of a swiss tournament.
// The results endpoint streams NDJSON, one player per line.
func (c *Client) GetSwissStandings(ctx context.Context, token, id string, limit int) ([]models.Standing, error) {
	query := url.Values{"nb": {strconv.Itoa(limit)}}
	raw, err := c.do(ctx, http.MethodGet, "/api/swiss/"+id+"/results", token, query, nil)
	if err != nil {
		return nil, err
	}

	standings := []models.Standing{}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row struct {
			Rank     int     `json:"rank"`
			Points   float64 `json:"points"`
			Username string  `json:"username"`
		}
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("decode swiss result line: %w", err)
		}
		standings = append(standings, models.Standing{
			Name:  row.Username,
			Rank:  row.Rank,
			Score: row.Points,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan swiss results: %w", err)
	}
	return standings, nil
}

// GetUser fetches a public user profile.
func (c *Client) GetUser(ctx context.Context, token, username string) (map[string]any, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/user/"+username, token, nil, nil)
	if err != nil {
		return nil, err
	}

	user := map[string]any{}
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

// Team is the slice of a lichess team this service cares about.
type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Leaders []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"leaders"`
}

// GetUserTeams lists the teams a user belongs to.
func (c *Client) GetUserTeams(ctx context.Context, token, username string) ([]Team, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/team/of/"+username, token, nil, nil)
	if err != nil {
		return nil, err
	}

	var teams []Team
	if err := json.Unmarshal(raw, &teams); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}
	return teams, nil
}

// encodeField renders one request field as the form value the host expects.
func encodeField(form url.Values, key string, value any) {
	switch v := value.(type) {
	case string:
		form.Set(key, v)
	case bool:
		form.Set(key, strconv.FormatBool(v))
	case int:
		form.Set(key, strconv.Itoa(v))
	case int64:
		form.Set(key, strconv.FormatInt(v, 10))
	case float64:
		form.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
	case map[string]any:
		// Nested objects (the swiss clock) flatten to dotted keys.
		for sub, subValue := range v {
			encodeField(form, key+"."+sub, subValue)
		}
	default:
		form.Set(key, fmt.Sprint(v))
	}
}
