package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/adapters/parquet"
	"github.com/okian/scout/internal/adapters/scrape"
	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/domain/season"
	"github.com/okian/scout/internal/domain/table"
	"github.com/okian/scout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init("text"); err != nil {
		panic(err)
	}
}

const standardPage = `<html><body>
<table id="stats_squads_standard_for">
<thead><tr><th>Squad</th><th>MP</th></tr></thead>
<tbody><tr><td>Arsenal</td><td>38</td></tr><tr><td>Ajax</td><td>34</td></tr></tbody>
</table>
<div id="all_stats_standard"><!--
<table id="stats_standard">
<thead>
<tr><th></th><th></th><th colspan="1">Playing Time</th><th></th></tr>
<tr><th>Player</th><th>Age</th><th>Min</th><th>Matches</th></tr>
</thead>
<tbody>
<tr><td>Ana Attacker</td><td>22</td><td>1,980</td><td>Matches</td></tr>
<tr><td>Player</td><td>Age</td><td>Min</td><td>Matches</td></tr>
<tr><td>Dan Winger</td><td>19</td><td>-</td><td>Matches</td></tr>
</tbody>
</table>
--></div>
</body></html>`

const (
	competitionsCSV = "competition_id,name,country_name\nGB1,premier-league,England\n"
	clubsCSV        = "club_id,name,domestic_competition_id\n1,Arsenal FC,GB1\n"
	valuationsCSV   = "player_id,date,market_value_in_eur\n10,2023-01-01,1000000\n"
	playersCSV      = "player_id,name,date_of_birth,country_of_citizenship,position,sub_position,foot," +
		"height_in_cm,current_club_id,current_club_name,current_club_domestic_competition_id," +
		"market_value_in_eur,highest_market_value_in_eur,contract_expiration_date,agent_name,url\n" +
		"10,Ana Attacker,2001-03-01,Spain,Midfield,Attacking Midfield,right,170,1,Arsenal FC,GB1,1000000,,,,\n"
	appearancesCSV = "appearance_id,game_id,player_id,player_club_id,player_current_club_id,date," +
		"competition_id,yellow_cards,red_cards,goals,assists,minutes_played\n" +
		"1_10,1,10,1,1,2023-08-12,GB1,0,0,1,0,450\n" +
		"2_10,2,10,1,1,2023-08-19,GB1,0,0,0,1,450\n"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newService(t *testing.T) (*service.Service, string) {
	t.Helper()
	root := t.TempDir()
	raw := filepath.Join(root, "raw")
	if err := os.MkdirAll(raw, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, raw, map[string]string{
		"competitions.csv":      competitionsCSV,
		"clubs.csv":             clubsCSV,
		"player_valuations.csv": valuationsCSV,
		"players.csv":           playersCSV,
		"appearances.csv":       appearancesCSV,
	})
	svc := service.New(
		service.WithRawRoot(raw),
		service.WithProcessedRoot(filepath.Join(root, "processed")),
		service.WithWarehouse("sqlite", filepath.Join(root, "warehouse", "scouting.db")),
		service.WithParseWorkers(2),
		service.WithLogger(logger.Get()),
	)
	return svc, root
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that has not been started", t, func() {
		svc, _ := newService(t)
		ctx := context.Background()

		Convey("Then warehouse operations are refused", func() {
			_, err := svc.Build(ctx)
			So(err, ShouldWrap, service.ErrNotStarted)
			So(svc.Ping(ctx), ShouldWrap, service.ErrNotStarted)
			_, err = svc.Summary(ctx)
			So(err, ShouldWrap, service.ErrNotStarted)
		})

		Convey("When it is started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Ping(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it is stopped", func() {
				So(svc.Ping(ctx), ShouldWrap, service.ErrNotStarted)
			})
		})
	})
}

func TestService_Build(t *testing.T) {
	Convey("Given a started service over a small export", t, func() {
		svc, _ := newService(t)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		report, err := svc.Build(ctx)
		So(err, ShouldBeNil)
		So(report.BuildID, ShouldNotBeEmpty)

		Convey("Then the summary counts every table and the latest seasons", func() {
			sum, err := svc.Summary(ctx)
			So(err, ShouldBeNil)
			So(len(sum.Tables), ShouldEqual, 7)
			So(sum.Tables[4].Table, ShouldEqual, "fact_appearances")
			So(sum.Tables[4].Rows, ShouldEqual, 2)
			So(len(sum.Seasons), ShouldEqual, 1)
			So(sum.Seasons[0].Season, ShouldEqual, "2023-2024")
		})

		Convey("Then the read operations serve the built tables", func() {
			rows, err := svc.Universe(ctx, "2023-2024", 10)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Age, ShouldEqual, 22)

			p, err := svc.Player(ctx, 10)
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Ana Attacker")

			av, err := svc.Availability(ctx, 10)
			So(err, ShouldBeNil)
			So(av[0].SeasonMinutes, ShouldEqual, 900.0)

			vals, err := svc.Valuations(ctx, 10)
			So(err, ShouldBeNil)
			So(len(vals), ShouldEqual, 1)
		})
	})
}

func TestService_ScrapeAndStage(t *testing.T) {
	Convey("Given a saved statistics page", t, func() {
		svc, root := newService(t)
		ctx := context.Background()
		page := filepath.Join(root, "standard.html")
		So(os.WriteFile(page, []byte(standardPage), 0o600), ShouldBeNil)

		Convey("When it is scraped", func() {
			res, err := svc.ScrapeFile(ctx, page, "2023-2024")
			So(err, ShouldBeNil)

			Convey("Then the hidden player table is normalized into an artifact", func() {
				So(res.ID, ShouldNotBeEmpty)
				So(res.Path, ShouldEqual, filepath.Join(root, "processed", "fbref_standard_2023-2024.parquet"))
				So(res.Rows, ShouldEqual, 2)
				So(res.Columns, ShouldResemble, []string{"player", "age", "playing_time_min", "season"})
				So(res.Stats.HeaderRowsDropped, ShouldEqual, 1)
				So(res.Stats.MatchesDropped, ShouldBeTrue)
				So(res.Stats.NullsCoerced, ShouldEqual, 1)

				out, err := parquet.Read(ctx, res.Path)
				So(err, ShouldBeNil)
				So(out.Rows[0], ShouldResemble, []table.Value{
					table.Str("Ana Attacker"), table.Num(22), table.Num(1980), table.Str("2023-2024"),
				})
				So(out.Rows[1][2], ShouldResemble, table.Null())
			})

			Convey("Then the artifact loads into its staging table", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()

				name, n, err := svc.LoadStaging(ctx, "2023-2024")
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "stg_fbref_standard_2023_2024")
				So(n, ShouldEqual, 2)

				_, n, err = svc.LoadStaging(ctx, "2023-2024")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When pages with unusual headers are scraped and staged", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			pages := []struct {
				label   string
				html    string
				columns []string
			}{
				{"2020-2021", `<table><tr><td>Ana</td><td>9</td></tr></table>`, []string{"0", "1", "season"}},
				{"2021-2022", `<table><tr><th>Player</th><th>Nação</th><th>90s</th></tr>` +
					`<tr><td>Ana</td><td>Brasil</td><td>10.5</td></tr></table>`, []string{"player", "nação", "90s", "season"}},
			}
			for _, p := range pages {
				path := filepath.Join(root, p.label+".html")
				So(os.WriteFile(path, []byte(p.html), 0o600), ShouldBeNil)
				res, err := svc.ScrapeFile(ctx, path, p.label)
				So(err, ShouldBeNil)
				So(res.Columns, ShouldResemble, p.columns)

				_, n, err := svc.LoadStaging(ctx, p.label)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			}
		})

		Convey("When a season has no artifact", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, _, err := svc.LoadStaging(ctx, "2019-2020")
			So(err, ShouldWrap, parquet.ErrArtifactNotFound)
		})

		Convey("When the season label is malformed", func() {
			_, err := svc.ScrapeFile(ctx, page, "2023")
			So(err, ShouldWrap, season.ErrInvalidLabel)
		})

		Convey("When the page has no tables", func() {
			empty := filepath.Join(root, "empty.html")
			So(os.WriteFile(empty, []byte("<html><body><p>maintenance</p></body></html>"), 0o600), ShouldBeNil)
			_, err := svc.ScrapeFile(ctx, empty, "2023-2024")
			So(err, ShouldWrap, scrape.ErrNoTablesFound)
		})

		Convey("When the page does not exist", func() {
			_, err := svc.ScrapeFile(ctx, filepath.Join(root, "missing.html"), "2023-2024")
			So(err, ShouldWrap, source.ErrSourceNotFound)
		})
	})
}

func TestStagingTable(t *testing.T) {
	Convey("Staging tables are named after source and season", t, func() {
		So(service.StagingTable("fbref_standard", "2023-2024"), ShouldEqual, "stg_fbref_standard_2023_2024")
	})
}
