package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/scout/internal/domain/model"
)

const dateLayout = "2006-01-02"

// PlayerDependencies defines the interface for player reads.
type PlayerDependencies interface {
	Player(ctx context.Context, id int64) (model.Player, error)
	Availability(ctx context.Context, playerID int64) ([]model.SeasonAvailability, error)
	Valuations(ctx context.Context, playerID int64) ([]model.MarketValuation, error)
}

// PlayerHandler handles per-player requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

type playerResponse struct {
	PlayerID               int64               `json:"player_id"`
	Name                   string              `json:"player_name"`
	DateOfBirth            *string             `json:"date_of_birth"`
	Nationality            string              `json:"nationality"`
	Position               string              `json:"position"`
	SubPosition            string              `json:"sub_position"`
	Foot                   string              `json:"foot"`
	HeightCM               *float64            `json:"height_in_cm"`
	CurrentClubID          *int64              `json:"current_club_id"`
	CurrentClubName        string              `json:"current_club_name"`
	MarketValueEUR         decimal.NullDecimal `json:"market_value_in_eur"`
	HighestMarketValueEUR  decimal.NullDecimal `json:"highest_market_value_in_eur"`
	ContractExpirationDate *string             `json:"contract_expiration_date"`
	AgentName              string              `json:"agent_name,omitempty"`
	URL                    string              `json:"url,omitempty"`
}

type availabilityRow struct {
	CompetitionID     string  `json:"competition_id"`
	Season            string  `json:"season"`
	GamesPlayed       int64   `json:"games_played"`
	SeasonMinutes     float64 `json:"season_minutes"`
	MinutesPerGame    float64 `json:"minutes_per_game"`
	MinutesVolatility float64 `json:"minutes_volatility"`
}

type valuationRow struct {
	Date     string          `json:"date"`
	ValueEUR decimal.Decimal `json:"market_value_in_eur"`
}

// HandleGetPlayer handles GET /players/{id} requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	p, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{
		PlayerID:               p.PlayerID,
		Name:                   p.Name,
		DateOfBirth:            formatDate(p.DateOfBirth),
		Nationality:            p.Nationality,
		Position:               p.Position,
		SubPosition:            p.SubPosition,
		Foot:                   p.Foot,
		HeightCM:               p.HeightCM,
		CurrentClubID:          p.CurrentClubID,
		CurrentClubName:        p.CurrentClubName,
		MarketValueEUR:         p.MarketValueEUR,
		HighestMarketValueEUR:  p.HighestMarketValueEUR,
		ContractExpirationDate: formatDate(p.ContractExpirationDate),
		AgentName:              p.AgentName,
		URL:                    p.URL,
	})
}

// HandleGetAvailability handles GET /players/{id}/availability requests.
func (h *PlayerHandler) HandleGetAvailability(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_availability"
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.Availability(r.Context(), id)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	out := make([]availabilityRow, len(rows))
	for i, a := range rows {
		out[i] = availabilityRow{
			CompetitionID:     a.CompetitionID,
			Season:            a.Season,
			GamesPlayed:       a.GamesPlayed,
			SeasonMinutes:     a.SeasonMinutes,
			MinutesPerGame:    a.MinutesPerGame,
			MinutesVolatility: a.MinutesVolatility,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetValuations handles GET /players/{id}/valuations requests.
func (h *PlayerHandler) HandleGetValuations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_valuations"
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.Valuations(r.Context(), id)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	out := make([]valuationRow, len(rows))
	for i, v := range rows {
		out[i] = valuationRow{Date: v.Date.Format(dateLayout), ValueEUR: v.ValueEUR}
	}
	writeJSON(w, http.StatusOK, out)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
