package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/app/pipeline"
	"github.com/okian/scout/internal/domain/universe"
	. "github.com/smartystreets/goconvey/convey"
)

const playersHeader = "player_id,name,date_of_birth,country_of_citizenship,position,sub_position,foot," +
	"height_in_cm,current_club_id,current_club_name,current_club_domestic_competition_id," +
	"market_value_in_eur,highest_market_value_in_eur,contract_expiration_date,agent_name,url"

// fixture writes a small transfermarkt-shaped export.
type fixture struct {
	players     []string
	appearances []string
}

func newFixture() *fixture {
	f := &fixture{
		players: []string{
			"10,Ana Attacker,2000-07-01,Spain,Attack,Attacking Midfield,right,170,1,Arsenal FC,GB1,30000000,35000000,2027-06-30,,https://example.org/10",
			"11,Ben Back,1999-03-10,England,Defender,Centre-Back,left,188.5,1,Arsenal FC,GB1,5000000,,,,https://example.org/11",
			"12,Cal Old,1996-05-05,Italy,Midfield,Central Midfield,right,180,2,Ajax Amsterdam,NL1,,,,,https://example.org/12",
			"13,Dan Winger,2004-01-01,Ghana,Attack,Left Winger,left,175,2,Ajax Amsterdam,NL1,,,,,https://example.org/13",
			"14,Eve Edge,1997-08-15,Norway,MIDFIELD,Right Midfield,both,168,2,Ajax Amsterdam,NL1,,,,,https://example.org/14",
		},
	}
	game := 1000
	app := func(player int, club int, comp, date string, minutes int) {
		game++
		f.appearances = append(f.appearances, fmt.Sprintf("%d_%d,%d,%d,%d,%d,%s,%s,0,0,0,0,%d",
			game, player, game, player, club, club, date, comp, minutes))
	}
	dates := []string{
		"2022-08-06", "2022-08-13", "2022-09-03", "2022-10-01", "2022-11-05",
		"2023-01-14", "2023-02-04", "2023-03-04", "2023-04-01",
	}
	for _, d := range dates {
		app(10, 1, "GB1", d, 90)
		app(12, 2, "NL1", d, 90)
		app(13, 2, "NL1", d, 90)
		app(14, 2, "NL1", d, 90)
	}
	app(10, 1, "GB1", "2023-06-30", 90) // last day of 2022-2023
	app(10, 1, "GB1", "2023-07-01", 90) // first day of 2023-2024
	app(12, 2, "NL1", "2023-05-06", 90)
	app(13, 2, "NL1", "2023-05-06", 89)
	app(14, 2, "NL1", "2023-05-06", 90)
	app(11, 1, "GB1", "2022-08-06", 90)
	app(11, 1, "GB1", "2022-08-13", 30)
	return f
}

func (f *fixture) write(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"competitions.csv": "competition_id,competition_code,name,country_name\n" +
			"GB1,premier-league,premier-league,England\n" +
			"NL1,eredivisie,eredivisie,Netherlands\n",
		"clubs.csv": "club_id,name,domestic_competition_id\n1,Arsenal FC,GB1\n2,Ajax Amsterdam,NL1\n",
		"player_valuations.csv": "player_id,date,market_value_in_eur\n" +
			"10,2022-01-01,1000000\n10,2023-01-01,2500000.50\n11,2022-06-01,5000000\n",
		"players.csv": playersHeader + "\n" + strings.Join(f.players, "\n") + "\n",
		"appearances.csv": "appearance_id,game_id,player_id,player_club_id,player_current_club_id,date,competition_id," +
			"yellow_cards,red_cards,goals,assists,minutes_played\n" + strings.Join(f.appearances, "\n") + "\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func openWarehouse(t *testing.T) *warehouse.Warehouse {
	t.Helper()
	wh, err := warehouse.Open(context.Background(), warehouse.DriverSQLite, filepath.Join(t.TempDir(), "scouting.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { wh.Close() })
	return wh
}

func dump(wh *warehouse.Warehouse) (string, error) {
	var b strings.Builder
	for _, name := range warehouse.Tables() {
		rows, err := wh.DB().Query("SELECT * FROM " + name)
		if err != nil {
			return "", err
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return "", err
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return "", err
			}
			fmt.Fprintf(&b, "%s %v\n", name, vals)
		}
		if err := rows.Close(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	Convey("Given a raw export and an empty warehouse", t, func() {
		dir := t.TempDir()
		newFixture().write(t, dir)
		wh := openWarehouse(t)

		report, err := pipeline.Build(ctx, wh, source.NewReader(dir), pipeline.WithBuildID("build-1"))
		So(err, ShouldBeNil)

		Convey("Every table is materialized in dependency order", func() {
			So(report.BuildID, ShouldEqual, "build-1")
			names := make([]string, len(report.Tables))
			for i, tc := range report.Tables {
				names[i] = tc.Table
			}
			So(names, ShouldResemble, warehouse.Tables())
			So(report.Tables[0].Rows, ShouldEqual, 5)
			So(report.Tables[4].Rows, ShouldEqual, 43)
			So(report.Audit.Clean(), ShouldBeTrue)
		})

		Convey("Two appearances of 90 and 30 minutes aggregate with population deviation", func() {
			rows, err := wh.Availability(ctx, 11)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].CompetitionID, ShouldEqual, "GB1")
			So(rows[0].Season, ShouldEqual, "2022-2023")
			So(rows[0].GamesPlayed, ShouldEqual, 2)
			So(rows[0].SeasonMinutes, ShouldEqual, 120.0)
			So(rows[0].MinutesPerGame, ShouldEqual, 60.0)
			So(rows[0].MinutesVolatility, ShouldEqual, 30.0)
		})

		Convey("June 30 and July 1 fall in different seasons", func() {
			rows, err := wh.Availability(ctx, 10)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Season, ShouldEqual, "2022-2023")
			So(rows[0].SeasonMinutes, ShouldEqual, 900.0)
			So(rows[1].Season, ShouldEqual, "2023-2024")
			So(rows[1].GamesPlayed, ShouldEqual, 1)
		})

		Convey("The universe keeps eligible player seasons only", func() {
			rows, err := wh.Universe(ctx, "", 100)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)

			So(rows[0].PlayerID, ShouldEqual, 10)
			So(rows[0].Age, ShouldEqual, 22)
			So(rows[0].CompetitionName, ShouldEqual, "premier-league")
			So(rows[0].SeasonMinutes, ShouldEqual, 900.0)

			So(rows[1].PlayerID, ShouldEqual, 14)
			So(rows[1].Age, ShouldEqual, 25)
			So(rows[1].Position, ShouldEqual, "MIDFIELD")

			for _, r := range rows {
				So(universe.New().Eligible(r.Candidate()), ShouldBeTrue)
			}

			seasons, err := wh.UniverseSeasons(ctx, 8)
			So(err, ShouldBeNil)
			So(len(seasons), ShouldEqual, 1)
			So(seasons[0].Rows, ShouldEqual, 2)
		})

		Convey("Player lookups read the dimensions and facts", func() {
			p, err := wh.Player(ctx, 10)
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Ana Attacker")
			So(p.DateOfBirth.Format("2006-01-02"), ShouldEqual, "2000-07-01")
			So(p.MarketValueEUR.Decimal.String(), ShouldEqual, "30000000")

			vals, err := wh.Valuations(ctx, 10)
			So(err, ShouldBeNil)
			So(len(vals), ShouldEqual, 2)
			So(vals[1].ValueEUR.String(), ShouldEqual, "2500000.5")

			_, err = wh.Player(ctx, 999)
			So(err, ShouldWrap, warehouse.ErrNotFound)
		})

		Convey("Rebuilding from identical inputs yields identical tables", func() {
			first, err := dump(wh)
			So(err, ShouldBeNil)

			_, err = pipeline.Build(ctx, wh, source.NewReader(dir))
			So(err, ShouldBeNil)
			second, err := dump(wh)
			So(err, ShouldBeNil)

			So(second, ShouldEqual, first)
			n, err := wh.Count(ctx, warehouse.TableFactAppearances)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 43)
		})

		Convey("A later failing build leaves the earlier tables intact", func() {
			before, err := dump(wh)
			So(err, ShouldBeNil)
			So(os.Remove(filepath.Join(dir, "appearances.csv")), ShouldBeNil)

			_, err = pipeline.Build(ctx, wh, source.NewReader(dir))
			So(err, ShouldWrap, source.ErrSourceNotFound)
			var stageErr *pipeline.StageError
			So(errors.As(err, &stageErr), ShouldBeTrue)
			So(stageErr.Stage, ShouldEqual, pipeline.StageLoadRaw)

			after, err := dump(wh)
			So(err, ShouldBeNil)
			So(after, ShouldEqual, before)
		})
	})

	Convey("Given a raw export missing a required column", t, func() {
		dir := t.TempDir()
		f := newFixture()
		f.write(t, dir)
		body := "appearance_id,game_id,player_id\n1_10,1,10\n"
		So(os.WriteFile(filepath.Join(dir, "appearances.csv"), []byte(body), 0o600), ShouldBeNil)

		_, err := pipeline.Build(ctx, openWarehouse(t), source.NewReader(dir))

		So(err, ShouldWrap, source.ErrSchemaMismatch)
		var stageErr *pipeline.StageError
		So(errors.As(err, &stageErr), ShouldBeTrue)
		So(stageErr.Stage, ShouldEqual, pipeline.StageLoadRaw)
		So(err.Error(), ShouldStartWith, "stage load_raw")
	})

	Convey("Given a duplicated player key", t, func() {
		dir := t.TempDir()
		f := newFixture()
		f.players = append(f.players, "10,Ana A. Attacker,2000-07-01,Spain,Attack,Attacking Midfield,right,170,1,Arsenal FC,GB1,,,,,")
		f.write(t, dir)
		wh := openWarehouse(t)

		report, err := pipeline.Build(ctx, wh, source.NewReader(dir))

		So(err, ShouldBeNil)
		So(report.Audit.Clean(), ShouldBeFalse)
		So(report.Audit.Keys[0].Table, ShouldEqual, warehouse.TableDimPlayer)
		So(report.Audit.Keys[0].Duplicates, ShouldEqual, 1)
		So(report.Tables[0].Rows, ShouldEqual, 6)

		n, err := wh.Count(ctx, warehouse.TableUniverse)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 3)
	})

	Convey("Given relaxed criteria", t, func() {
		dir := t.TempDir()
		newFixture().write(t, dir)
		wh := openWarehouse(t)

		_, err := pipeline.Build(ctx, wh, source.NewReader(dir),
			pipeline.WithCriteria(universe.New(universe.WithMinMinutes(800))))
		So(err, ShouldBeNil)

		rows, err := wh.Universe(ctx, "2022-2023", 10)
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 3)
		So(rows[2].PlayerID, ShouldEqual, 13)
		So(rows[2].SeasonMinutes, ShouldEqual, 899.0)
	})

	Convey("Given criteria that cannot select anything", t, func() {
		bad := universe.Criteria{MinMinutes: 900, MinAge: 30, MaxAge: 20}
		_, err := pipeline.Build(ctx, openWarehouse(t), source.NewReader(t.TempDir()), pipeline.WithCriteria(bad))
		So(err, ShouldWrap, pipeline.ErrInvalidCriteria)
	})
}

func TestPipeline_Stages(t *testing.T) {
	Convey("Given a pipeline", t, func() {
		p := pipeline.New(openWarehouse(t), source.NewReader(t.TempDir()))

		names := []string{}
		for _, st := range p.Stages() {
			names = append(names, st.Name)
		}

		So(names, ShouldResemble, []string{
			"load_raw",
			"dim_player", "dim_club", "dim_competition",
			"fact_player_market_value", "fact_appearances",
			"fact_player_season_availability",
			"scouting_universe_base",
			"audit",
		})
	})
}
