package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/models"
)

// TeamLister is the teams slice of the lichess client.
type TeamLister interface {
	GetUserTeams(ctx context.Context, token, username string) ([]lichess.Team, error)
}

// LookupService answers one-off questions against the host: inspecting an
// arbitrary tournament by URL and listing the teams a user leads.
type LookupService struct {
	host   TournamentHost
	teams  TeamLister
	logger *slog.Logger
}

func NewLookupService(host TournamentHost, teams TeamLister, logger *slog.Logger) *LookupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{host: host, teams: teams, logger: logger}
}

// LookupByURL fetches the tournament behind a lichess URL. Arena snapshots
// get their players' profiles attached, fetched concurrently.
func (s *LookupService) LookupByURL(ctx context.Context, token, rawURL string) (map[string]any, error) {
	kind, id, err := parseTournamentURL(rawURL)
	if err != nil {
		return nil, err
	}

	tournament, err := s.host.GetTournament(ctx, token, kind, id)
	if err != nil {
		return nil, err
	}

	if kind == models.KindArena {
		if err := s.attachProfiles(ctx, token, tournament); err != nil {
			return nil, err
		}
	}

	tournament["type"] = kind
	return tournament, nil
}

// LeadTeams lists the teams where the user is one of the leaders.
func (s *LookupService) LeadTeams(ctx context.Context, token, username, userID string) ([]lichess.Team, error) {
	teams, err := s.teams.GetUserTeams(ctx, token, username)
	if err != nil {
		return nil, err
	}

	lead := []lichess.Team{}
	for _, team := range teams {
		for _, leader := range team.Leaders {
			if leader.ID == userID {
				lead = append(lead, team)
				break
			}
		}
	}
	return lead, nil
}

// attachProfiles decorates every standing player of an arena snapshot with
// the profile section of their account.
func (s *LookupService) attachProfiles(ctx context.Context, token string, tournament map[string]any) error {
	standing, _ := tournament["standing"].(map[string]any)
	players, _ := standing["players"].([]any)
	if len(players) == 0 {
		return nil
	}

	profiles := make([]map[string]any, len(players))
	g, gCtx := errgroup.WithContext(ctx)
	for i, raw := range players {
		player, _ := raw.(map[string]any)
		name, _ := player["name"].(string)
		if name == "" {
			continue
		}
		g.Go(func() error {
			user, err := s.host.GetUser(gCtx, token, name)
			if err != nil {
				return err
			}
			profiles[i] = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to fetch player profiles: %w", err)
	}

	for i, raw := range players {
		player, ok := raw.(map[string]any)
		if !ok || profiles[i] == nil {
			continue
		}
		if profile, ok := profiles[i]["profile"]; ok {
			player["profile"] = profile
		} else {
			player["profile"] = map[string]any{}
		}
	}
	return nil
}

func parseTournamentURL(rawURL string) (kind, id string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != "lichess.org" {
		return "", "", ErrInvalidTournamentURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", ErrInvalidTournamentURL
	}
	id = parts[len(parts)-1]
	switch parts[len(parts)-2] {
	case "tournament":
		kind = models.KindArena
	case "swiss":
		kind = models.KindSwiss
	default:
		return "", "", ErrInvalidTournamentKind
	}
	return kind, id, nil
}
