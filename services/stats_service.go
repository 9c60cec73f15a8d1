package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
	"github.com/nimven/autotourney/sheets"
)

// qualifiedFieldSize is the minimum number of ranked players for a win to
// count as qualified. Swiss standings are fetched capped at the same number,
// so for swiss this check runs against the capped list; that is the
// long-standing behavior and is kept as is.
const qualifiedFieldSize = 10

// SpreadsheetStore is the destination aggregation boundary. *sheets.Client
// is the production implementation.
type SpreadsheetStore interface {
	Get(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error)
	CreatePublic(ctx context.Context, title string) (*sheets.Spreadsheet, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) error
	WriteValues(ctx context.Context, spreadsheetID, rangeSpec string, rows [][]any) error
}

// StatsService folds tournament standings into per-month player statistics
// and publishes them to the user's stats spreadsheet.
type StatsService struct {
	users       repositories.UserRepository
	tournaments repositories.TournamentRepository
	host        TournamentHost
	sheets      SpreadsheetStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewStatsService(
	users repositories.UserRepository,
	tournaments repositories.TournamentRepository,
	host TournamentHost,
	spreadsheets SpreadsheetStore,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		users:       users,
		tournaments: tournaments,
		host:        host,
		sheets:      spreadsheets,
		logger:      logger,
		now:         time.Now,
	}
}

// PlayerStats is the per-month accumulator for one player. Recomputed on
// every refresh, never persisted.
type PlayerStats struct {
	Points         float64
	Wins           int
	Podiums        int
	QualifiedWins  int
	WonTournaments []*models.Tournament
}

type StatsReport struct {
	SpreadsheetURL string
	UpdatedAt      time.Time
}

// RefreshStats aggregates the user's tournaments since the start of the
// previous calendar month and writes one tab per month to the user's stats
// spreadsheet, creating the spreadsheet and missing tabs on the way.
func (s *StatsService) RefreshStats(ctx context.Context, userID, token string) (*StatsReport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	spreadsheet, err := s.destination(ctx, user)
	if err != nil {
		return nil, err
	}

	since := startOfPreviousMonth(s.now().UTC())
	tournaments, err := s.tournaments.ListStartedSince(ctx, userID, models.DefaultTournamentSet, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to load tournaments: %w", err)
	}

	for _, t := range tournaments {
		s.ensureStandings(ctx, token, t)
	}

	stats := aggregateByMonth(tournaments)

	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		if !spreadsheet.HasSheet(label) {
			if err := s.sheets.AddSheet(ctx, spreadsheet.SpreadsheetID, label); err != nil {
				return nil, fmt.Errorf("failed to add sheet %q: %w", label, err)
			}
		}

		rows := statsRows(stats[label])
		colsCount := 0
		for _, row := range rows {
			if len(row) > colsCount {
				colsCount = len(row)
			}
		}
		// The extra row keeps the block one row taller than the data, which
		// existing spreadsheets expect.
		rowsCount := len(rows) + 1
		rangeSpec := fmt.Sprintf("%s!A1:%c%d", label, rune('A'+colsCount-1), rowsCount)
		if err := s.sheets.WriteValues(ctx, spreadsheet.SpreadsheetID, rangeSpec, rows); err != nil {
			return nil, fmt.Errorf("failed to write sheet %q: %w", label, err)
		}
	}

	user.StatsUpdated = s.now().Unix()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record stats timestamp: %w", err)
	}

	return &StatsReport{
		SpreadsheetURL: spreadsheet.SpreadsheetURL,
		UpdatedAt:      time.Unix(user.StatsUpdated, 0).UTC(),
	}, nil
}

// destination returns the user's stats spreadsheet, creating it when the
// cached reference is empty or points at a deleted spreadsheet. Two
// concurrent refreshes can both miss here and each create a spreadsheet;
// the user record keeps whichever wrote last.
func (s *StatsService) destination(ctx context.Context, user *models.User) (*sheets.Spreadsheet, error) {
	if user.StatsSpreadsheet != "" {
		spreadsheet, err := s.sheets.Get(ctx, user.StatsSpreadsheet)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch spreadsheet: %w", err)
		}
		if spreadsheet != nil {
			return spreadsheet, nil
		}
	}

	spreadsheet, err := s.sheets.CreatePublic(ctx,
		fmt.Sprintf("Lichess autotournament statistics for %s", user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	user.StatsSpreadsheet = spreadsheet.SpreadsheetID
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store spreadsheet reference: %w", err)
	}
	s.logger.Info("stats spreadsheet created",
		slog.String("user", user.ID),
		slog.String("spreadsheet", spreadsheet.SpreadsheetID))
	return spreadsheet, nil
}

// ensureStandings fetches and caches standings for a tournament that has
// none yet. A tournament deleted upstream caches as empty. Other fetch
// failures leave the cache untouched and only log; one bad tournament must
// not sink the whole refresh.
func (s *StatsService) ensureStandings(ctx context.Context, token string, t *models.Tournament) {
	if len(t.Standings) > 0 {
		return
	}

	kind, ok := tournamentKinds[t.Kind()]
	if !ok {
		kind = tournamentKinds[models.KindSwiss]
	}

	standings, err := kind.fetchStandings(ctx, s.host, token, t.ID)
	if err != nil {
		if !lichess.IsNotFound(err) {
			s.logger.Warn("failed to fetch standings",
				slog.String("tournament", t.ID), slog.Any("error", err))
			return
		}
		s.logger.Warn("tournament was deleted upstream", slog.String("tournament", t.ID))
		standings = []models.Standing{}
	}

	t.Standings = standings
	if err := s.tournaments.Save(ctx, t); err != nil {
		s.logger.Warn("failed to cache standings",
			slog.String("tournament", t.ID), slog.Any("error", err))
	}
}

// aggregateByMonth folds every cached standing into per-(month, player)
// accumulators. Months are labeled "<year> <Mon>" from the tournament's own
// start timestamp.
func aggregateByMonth(tournaments []*models.Tournament) map[string]map[string]*PlayerStats {
	stats := map[string]map[string]*PlayerStats{}
	for _, t := range tournaments {
		if len(t.Standings) == 0 {
			continue
		}
		label := monthLabel(t.StartsAt)
		month, ok := stats[label]
		if !ok {
			month = map[string]*PlayerStats{}
			stats[label] = month
		}

		for _, standing := range t.Standings {
			player, ok := month[standing.Name]
			if !ok {
				player = &PlayerStats{}
				month[standing.Name] = player
			}

			player.Points += standing.Score
			if standing.Rank == 1 {
				player.Wins++
				player.WonTournaments = append(player.WonTournaments, t)
				if len(t.Standings) >= qualifiedFieldSize {
					player.QualifiedWins++
				}
			}
			if standing.Rank <= 3 {
				player.Podiums++
			}
		}
	}
	return stats
}

func monthLabel(startsAt int64) string {
	start := time.Unix(startsAt, 0).UTC()
	return fmt.Sprintf("%d %s", start.Year(), start.Month().String()[:3])
}

// statsRows renders one month as a header row plus one row per player,
// ragged: each won tournament appends a HYPERLINK cell to its winner's row.
func statsRows(month map[string]*PlayerStats) [][]any {
	players := make([]string, 0, len(month))
	for player := range month {
		players = append(players, player)
	}
	sort.Strings(players)

	rows := [][]any{{
		"Player id", "Points", "Wins", "Wins with >= 10 players",
		"Podiums", "Won tournaments",
	}}
	for _, player := range players {
		stats := month[player]
		row := []any{player, stats.Points, stats.Wins, stats.QualifiedWins, stats.Podiums}
		for _, t := range stats.WonTournaments {
			row = append(row, fmt.Sprintf("=HYPERLINK(%q, %q)", t.URL(), t.DisplayName()))
		}
		rows = append(rows, row)
	}
	return rows
}

// startOfPreviousMonth is always the previous calendar month's first day,
// even when called mid-month.
func startOfPreviousMonth(now time.Time) time.Time {
	year, month := now.Year(), now.Month()
	if month == time.January {
		year, month = year-1, time.December
	} else {
		month--
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
