package pipeline

import (
	"strings"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/domain/universe"
)

// Raw rows keep their file position, so ties in every ORDER BY resolve the
// same way on each build.
var row = warehouse.RowColumn

func dimPlayerSQL() string {
	return `SELECT
	player_id,
	name AS player_name,
	date_of_birth,
	country_of_citizenship AS nationality,
	position,
	sub_position,
	foot,
	height_in_cm,
	current_club_id,
	current_club_name,
	current_club_domestic_competition_id,
	market_value_in_eur,
	highest_market_value_in_eur,
	contract_expiration_date,
	agent_name,
	url
FROM ` + source.Players.Name + `
ORDER BY player_id, ` + row
}

func dimClubSQL() string {
	return `SELECT
	club_id,
	name AS club_name,
	domestic_competition_id
FROM ` + source.Clubs.Name + `
ORDER BY club_id, ` + row
}

func dimCompetitionSQL() string {
	return `SELECT
	competition_id,
	name AS competition_name,
	country_name
FROM ` + source.Competitions.Name + `
ORDER BY competition_id, ` + row
}

func marketValueSQL() string {
	return `SELECT
	player_id,
	date,
	market_value_in_eur
FROM ` + source.Valuations.Name + `
ORDER BY player_id, date, ` + row
}

func appearancesSQL(d warehouse.Dialect) string {
	return `SELECT
	appearance_id,
	game_id,
	player_id,
	player_club_id,
	player_current_club_id,
	date AS match_date,
	competition_id,
	yellow_cards,
	red_cards,
	goals,
	assists,
	minutes_played,
	` + d.Season("date") + ` AS season
FROM ` + source.Appearances.Name + `
ORDER BY date, appearance_id, ` + row
}

// availabilitySQL aggregates over existing appearances only, so a player
// never gets a row for a competition and season they did not play.
func availabilitySQL(d warehouse.Dialect) string {
	return `SELECT
	player_id,
	competition_id,
	season,
	COUNT(DISTINCT game_id) AS games_played,
	SUM(minutes_played) AS season_minutes,
	AVG(minutes_played) AS minutes_per_game,
	` + d.StddevPop("minutes_played") + ` AS minutes_volatility
FROM ` + warehouse.TableFactAppearances + `
GROUP BY player_id, competition_id, season
ORDER BY player_id, competition_id, season`
}

func universeSQL(d warehouse.Dialect, c universe.Criteria) string {
	var keywords []string
	for _, k := range c.PositionKeywords {
		keywords = append(keywords, warehouse.ContainsFold("position", k))
	}
	for _, k := range c.SubPositionKeywords {
		keywords = append(keywords, warehouse.ContainsFold("sub_position", k))
	}

	return `WITH base AS (
	SELECT
		a.player_id,
		a.competition_id,
		a.season,
		a.games_played,
		a.season_minutes,
		a.minutes_per_game,
		a.minutes_volatility,
		p.player_name,
		p.date_of_birth,
		p.nationality,
		p.position,
		p.sub_position,
		p.foot,
		p.height_in_cm,
		c.competition_name,
		c.country_name
	FROM ` + warehouse.TableSeasonAvailability + ` a
	JOIN ` + warehouse.TableDimPlayer + ` p ON p.player_id = a.player_id
	JOIN ` + warehouse.TableDimCompetition + ` c ON c.competition_id = a.competition_id
),
enriched AS (
	SELECT base.*, ` + d.AgeAt("date_of_birth", "season") + ` AS age
	FROM base
)
SELECT *
FROM enriched
WHERE season_minutes >= ` + warehouse.Int(c.MinMinutes) + `
	AND age BETWEEN ` + warehouse.Int(c.MinAge) + ` AND ` + warehouse.Int(c.MaxAge) + `
	AND (
		` + strings.Join(keywords, "\n\t\tOR ") + `
	)
ORDER BY ` + strings.Join(universeOrder, ", ")
}

// universeOrder lists every projected column, so duplicated dimension rows
// still come out in the same order on each build.
var universeOrder = []string{
	"season", "player_id", "competition_id",
	"games_played", "season_minutes", "minutes_per_game", "minutes_volatility",
	"player_name", "date_of_birth", "nationality", "position", "sub_position",
	"foot", "height_in_cm", "competition_name", "country_name", "age",
}
