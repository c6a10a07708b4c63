package normalize_test

import (
	"testing"

	"github.com/okian/scout/internal/domain/normalize"
	"github.com/okian/scout/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLabel(t *testing.T) {
	Convey("Given raw header labels", t, func() {
		So(normalize.Label("Performance_Gls"), ShouldEqual, "performance_gls")
		So(normalize.Label("  Playing Time  Min "), ShouldEqual, "playing_time_min")
		So(normalize.Label("Save%"), ShouldEqual, "savepct")
		So(normalize.Label("Per 90 Minutes_G+A-PK"), ShouldEqual, "per_90_minutes_gapk")
		So(normalize.Label("Cmp/Att"), ShouldEqual, "cmp_att")
		So(normalize.Label("Nation"), ShouldEqual, "nation")
	})

	Convey("Given a multi-level column", t, func() {
		So(normalize.ColumnName(table.Column{"Unnamed: 1_level_0", "Player"}), ShouldEqual, "player")
		So(normalize.ColumnName(table.Column{"Per 90 Minutes", "Gls"}), ShouldEqual, "per_90_minutes_gls")
	})
}

func stdTable() table.Raw {
	return table.Raw{
		Columns: []table.Column{
			{"Unnamed: 0_level_0", "Player"},
			{"Unnamed: 1_level_0", "Age"},
			{"Playing Time", "Min"},
			{"Unnamed: 3_level_0", "Matches"},
			{"Performance", "Gls"},
		},
		Rows: [][]table.Value{
			{table.Str("Ana"), table.Str("21"), table.Str("1,234"), table.Str("Matches"), table.Str("3")},
			{table.Str("Player"), table.Str("Age"), table.Str("Min"), table.Str("Matches"), table.Str("Gls")},
			{table.Str("Bo"), table.Str("19"), table.Str("n/a"), table.Str("Matches"), table.Null()},
		},
	}
}

func TestNormalizer_Table(t *testing.T) {
	Convey("Given a scraped standard stats table", t, func() {
		n := normalize.New()
		out, stats := n.Table(stdTable(), "2024-2025")

		Convey("Repeated header rows are dropped", func() {
			So(stats.HeaderRowsDropped, ShouldEqual, 1)
			So(len(out.Rows), ShouldEqual, 2)
		})

		Convey("A constant matches column is dropped and season is appended", func() {
			So(stats.MatchesDropped, ShouldBeTrue)
			So(out.Names(), ShouldResemble, []string{"player", "age", "playing_time_min", "performance_gls", "season"})
			So(out.Rows[0][4].String(), ShouldEqual, "2024-2025")
			So(out.Rows[1][4].String(), ShouldEqual, "2024-2025")
		})

		Convey("Allow-listed columns are numeric with thousands separators removed", func() {
			So(out.Fields[1].Type, ShouldEqual, table.TypeNumber)
			So(out.Rows[0][1].Num, ShouldEqual, 21)
			So(out.Rows[0][2].Num, ShouldEqual, 1234)
			So(out.Rows[0][3].Num, ShouldEqual, 3)
			So(out.Fields[0].Type, ShouldEqual, table.TypeString)
		})

		Convey("Unparseable values become null and are counted", func() {
			So(out.Rows[1][2].IsNull(), ShouldBeTrue)
			So(out.Rows[1][3].IsNull(), ShouldBeTrue)
			So(stats.NullsCoerced, ShouldEqual, 1)
		})
	})

	Convey("Given a matches column with two distinct values", t, func() {
		raw := table.Raw{
			Columns: []table.Column{{"Player"}, {"Matches"}},
			Rows: [][]table.Value{
				{table.Str("Ana"), table.Str("Matches")},
				{table.Str("Bo"), table.Null()},
			},
		}
		out, stats := normalize.New().Table(raw, "2023-2024")
		So(stats.MatchesDropped, ShouldBeFalse)
		So(out.FieldIndex("matches"), ShouldEqual, 1)
	})

	Convey("Given duplicate labels", t, func() {
		raw := table.Raw{
			Columns: []table.Column{{"Gls"}, {"Gls"}, {"Gls_1"}, {"#"}},
			Rows:    [][]table.Value{{table.Str("1"), table.Str("2"), table.Str("3"), table.Str("4")}},
		}
		out, _ := normalize.New().Table(raw, "2023-2024")
		So(out.Names(), ShouldResemble, []string{"gls", "gls_1", "gls_1_1", "col_3", "season"})
	})

	Convey("Given a custom numeric allow-list", t, func() {
		n := normalize.New(normalize.WithNumericColumns([]string{"player"}))
		out, stats := n.Table(stdTable(), "2024-2025")
		So(out.Fields[0].Type, ShouldEqual, table.TypeNumber)
		So(out.Fields[1].Type, ShouldEqual, table.TypeString)
		So(stats.NullsCoerced, ShouldEqual, 2)
	})
}
