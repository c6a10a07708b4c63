package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/scout/internal/domain/model"
)

const dateLayout = "2006-01-02"

// Count returns the row count of name.
func (w *Warehouse) Count(ctx context.Context, name string) (int64, error) {
	return count(ctx, w.db, name)
}

// Counts returns the row count of every named table.
func (w *Warehouse) Counts(ctx context.Context, names ...string) ([]model.TableCount, error) {
	out := make([]model.TableCount, 0, len(names))
	for _, name := range names {
		n, err := w.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, model.TableCount{Table: name, Rows: n})
	}
	return out, nil
}

// UniverseSeasons returns universe row counts for the latest seasons.
func (w *Warehouse) UniverseSeasons(ctx context.Context, limit int) ([]model.SeasonCount, error) {
	q := "SELECT season, COUNT(*) FROM " + TableUniverse +
		" GROUP BY season ORDER BY season DESC LIMIT " + w.dialect.Placeholder(1)
	rows, err := w.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("universe seasons: %w", err)
	}
	defer rows.Close()

	var out []model.SeasonCount
	for rows.Next() {
		var c model.SeasonCount
		if err := rows.Scan(&c.Season, &c.Rows); err != nil {
			return nil, fmt.Errorf("scan season count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Universe returns scouting universe rows, optionally for one season, most
// played first.
func (w *Warehouse) Universe(ctx context.Context, season string, limit int) ([]model.UniverseRow, error) {
	q := `SELECT player_id, competition_id, season, games_played, season_minutes,
		minutes_per_game, minutes_volatility, player_name, CAST(date_of_birth AS TEXT),
		nationality, position, sub_position, foot, height_in_cm, competition_name,
		country_name, age
	FROM ` + TableUniverse
	args := []any{}
	if season != "" {
		args = append(args, season)
		q += " WHERE season = " + w.dialect.Placeholder(len(args))
	}
	args = append(args, limit)
	q += " ORDER BY season DESC, season_minutes DESC, player_id, competition_id LIMIT " + w.dialect.Placeholder(len(args))

	rows, err := w.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	defer rows.Close()

	var out []model.UniverseRow
	for rows.Next() {
		var (
			r                                         model.UniverseRow
			minutes, perGame, volatility, height      sql.NullFloat64
			name, dob, nat, pos, sub, foot, comp, cty sql.NullString
			age                                       sql.NullInt64
		)
		if err := rows.Scan(&r.PlayerID, &r.CompetitionID, &r.Season, &r.GamesPlayed, &minutes,
			&perGame, &volatility, &name, &dob, &nat, &pos, &sub, &foot, &height, &comp,
			&cty, &age); err != nil {
			return nil, fmt.Errorf("scan universe row: %w", err)
		}
		r.SeasonMinutes = minutes.Float64
		r.MinutesPerGame = perGame.Float64
		r.MinutesVolatility = volatility.Float64
		r.PlayerName = name.String
		r.DateOfBirth = parseDate(dob)
		r.Nationality = nat.String
		r.Position = pos.String
		r.SubPosition = sub.String
		r.Foot = foot.String
		r.HeightCM = nullFloat(height)
		r.CompetitionName = comp.String
		r.CountryName = cty.String
		r.Age = int(age.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Player returns the first dim_player row for id.
func (w *Warehouse) Player(ctx context.Context, id int64) (model.Player, error) {
	q := `SELECT player_id, player_name, CAST(date_of_birth AS TEXT), nationality, position,
		sub_position, foot, height_in_cm, current_club_id, current_club_name,
		market_value_in_eur, highest_market_value_in_eur,
		CAST(contract_expiration_date AS TEXT), agent_name, url
	FROM ` + TableDimPlayer + " WHERE player_id = " + w.dialect.Placeholder(1) + " LIMIT 1"

	var (
		p                                         model.Player
		name, dob, nat, pos, sub, foot, club, exp sql.NullString
		agent, url                                sql.NullString
		height                                    sql.NullFloat64
		clubID                                    sql.NullInt64
	)
	err := w.db.QueryRowContext(ctx, q, id).Scan(&p.PlayerID, &name, &dob, &nat, &pos, &sub,
		&foot, &height, &clubID, &club, &p.MarketValueEUR, &p.HighestMarketValueEUR, &exp,
		&agent, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, fmt.Errorf("player %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("player %d: %w", id, err)
	}
	p.Name = name.String
	p.DateOfBirth = parseDate(dob)
	p.Nationality = nat.String
	p.Position = pos.String
	p.SubPosition = sub.String
	p.Foot = foot.String
	p.HeightCM = nullFloat(height)
	if clubID.Valid {
		p.CurrentClubID = &clubID.Int64
	}
	p.CurrentClubName = club.String
	p.ContractExpirationDate = parseDate(exp)
	p.AgentName = agent.String
	p.URL = url.String
	return p, nil
}

// Availability returns the season aggregates of one player.
func (w *Warehouse) Availability(ctx context.Context, playerID int64) ([]model.SeasonAvailability, error) {
	q := `SELECT player_id, competition_id, season, games_played, season_minutes,
		minutes_per_game, minutes_volatility
	FROM ` + TableSeasonAvailability + " WHERE player_id = " + w.dialect.Placeholder(1) +
		" ORDER BY season, competition_id"

	rows, err := w.db.QueryContext(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}
	defer rows.Close()

	var out []model.SeasonAvailability
	for rows.Next() {
		var (
			a                            model.SeasonAvailability
			comp                         sql.NullString
			minutes, perGame, volatility sql.NullFloat64
		)
		if err := rows.Scan(&a.PlayerID, &comp, &a.Season, &a.GamesPlayed, &minutes, &perGame, &volatility); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		a.CompetitionID = comp.String
		a.SeasonMinutes = minutes.Float64
		a.MinutesPerGame = perGame.Float64
		a.MinutesVolatility = volatility.Float64
		out = append(out, a)
	}
	return out, rows.Err()
}

// Valuations returns the market value series of one player by date.
func (w *Warehouse) Valuations(ctx context.Context, playerID int64) ([]model.MarketValuation, error) {
	q := "SELECT player_id, CAST(date AS TEXT), market_value_in_eur FROM " + TableFactMarketValue +
		" WHERE player_id = " + w.dialect.Placeholder(1) + " AND market_value_in_eur IS NOT NULL ORDER BY date"

	rows, err := w.db.QueryContext(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("valuations: %w", err)
	}
	defer rows.Close()

	var out []model.MarketValuation
	for rows.Next() {
		var (
			v    model.MarketValuation
			date sql.NullString
		)
		if err := rows.Scan(&v.PlayerID, &date, &v.ValueEUR); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		if d := parseDate(date); d != nil {
			v.Date = *d
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || len(s.String) < len(dateLayout) {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String[:len(dateLayout)])
	if err != nil {
		return nil
	}
	return &t
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
