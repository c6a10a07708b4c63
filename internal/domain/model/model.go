// Package model contains the warehouse read models passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/scout/internal/domain/universe"
)

// Player mirrors a dim_player row.
type Player struct {
	PlayerID               int64
	Name                   string
	DateOfBirth            *time.Time
	Nationality            string
	Position               string
	SubPosition            string
	Foot                   string
	HeightCM               *float64
	CurrentClubID          *int64
	CurrentClubName        string
	MarketValueEUR         decimal.NullDecimal
	HighestMarketValueEUR  decimal.NullDecimal
	ContractExpirationDate *time.Time
	AgentName              string
	URL                    string
}

// MarketValuation is one point of a player's value time series.
type MarketValuation struct {
	PlayerID int64
	Date     time.Time
	ValueEUR decimal.Decimal
}

// SeasonAvailability is the per player, competition and season aggregate.
type SeasonAvailability struct {
	PlayerID          int64
	CompetitionID     string
	Season            string
	GamesPlayed       int64
	SeasonMinutes     float64
	MinutesPerGame    float64
	MinutesVolatility float64
}

// UniverseRow is one scouting_universe_base row.
type UniverseRow struct {
	SeasonAvailability
	PlayerName      string
	DateOfBirth     *time.Time
	Nationality     string
	Position        string
	SubPosition     string
	Foot            string
	HeightCM        *float64
	CompetitionName string
	CountryName     string
	Age             int
}

// Candidate projects the row onto the eligibility inputs.
func (r UniverseRow) Candidate() universe.Candidate {
	return universe.Candidate{
		SeasonMinutes: r.SeasonMinutes,
		Age:           r.Age,
		Position:      r.Position,
		SubPosition:   r.SubPosition,
	}
}

// TableCount is a row count of one warehouse table.
type TableCount struct {
	Table string
	Rows  int64
}

// SeasonCount is the number of universe rows in one season.
type SeasonCount struct {
	Season string
	Rows   int64
}
