package warehouse

// Warehouse tables, in build order.
const (
	TableDimPlayer          = "dim_player"
	TableDimClub            = "dim_club"
	TableDimCompetition     = "dim_competition"
	TableFactMarketValue    = "fact_player_market_value"
	TableFactAppearances    = "fact_appearances"
	TableSeasonAvailability = "fact_player_season_availability"
	TableUniverse           = "scouting_universe_base"
)

// Tables lists every modeled table in build order.
func Tables() []string {
	return []string{
		TableDimPlayer,
		TableDimClub,
		TableDimCompetition,
		TableFactMarketValue,
		TableFactAppearances,
		TableSeasonAvailability,
		TableUniverse,
	}
}
