package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/season"
)

// UniverseDependencies defines the interface for universe reads.
type UniverseDependencies interface {
	Universe(ctx context.Context, season string, limit int) ([]model.UniverseRow, error)
}

// UniverseHandler handles scouting universe requests.
type UniverseHandler struct {
	deps     UniverseDependencies
	maxLimit int
}

// NewUniverseHandler creates a new universe handler.
func NewUniverseHandler(deps UniverseDependencies, maxLimit int) *UniverseHandler {
	if maxLimit < 1 {
		maxLimit = DefaultLimit
	}
	return &UniverseHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type universeRow struct {
	PlayerID          int64    `json:"player_id"`
	PlayerName        string   `json:"player_name"`
	CompetitionID     string   `json:"competition_id"`
	CompetitionName   string   `json:"competition_name"`
	CountryName       string   `json:"country_name"`
	Season            string   `json:"season"`
	Age               int      `json:"age"`
	DateOfBirth       *string  `json:"date_of_birth"`
	Nationality       string   `json:"nationality"`
	Position          string   `json:"position"`
	SubPosition       string   `json:"sub_position"`
	Foot              string   `json:"foot"`
	HeightCM          *float64 `json:"height_in_cm"`
	GamesPlayed       int64    `json:"games_played"`
	SeasonMinutes     float64  `json:"season_minutes"`
	MinutesPerGame    float64  `json:"minutes_per_game"`
	MinutesVolatility float64  `json:"minutes_volatility"`
}

// HandleGetUniverse handles GET /universe?season=Y-Y&limit=N requests.
func (h *UniverseHandler) HandleGetUniverse(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_universe"
	q := r.URL.Query()

	n := min(DefaultLimit, h.maxLimit)
	if s := q.Get("limit"); s != "" {
		var err error
		n, err = strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	label := q.Get("season")
	if label != "" {
		if _, _, err := season.Parse(label); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
			return
		}
	}

	rows, err := h.deps.Universe(r.Context(), label, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]universeRow, len(rows))
	for i, row := range rows {
		out[i] = universeRow{
			PlayerID:          row.PlayerID,
			PlayerName:        row.PlayerName,
			CompetitionID:     row.CompetitionID,
			CompetitionName:   row.CompetitionName,
			CountryName:       row.CountryName,
			Season:            row.Season,
			Age:               row.Age,
			DateOfBirth:       formatDate(row.DateOfBirth),
			Nationality:       row.Nationality,
			Position:          row.Position,
			SubPosition:       row.SubPosition,
			Foot:              row.Foot,
			HeightCM:          row.HeightCM,
			GamesPlayed:       row.GamesPlayed,
			SeasonMinutes:     row.SeasonMinutes,
			MinutesPerGame:    row.MinutesPerGame,
			MinutesVolatility: row.MinutesVolatility,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
