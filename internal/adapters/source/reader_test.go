package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReader_Each(t *testing.T) {
	ctx := context.Background()

	Convey("Given a valuations export with extra and reordered columns", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "player_valuations.csv",
			"\ufeffdate,extra,player_id,market_value_in_eur\n"+
				"2020-01-15 00:00:00,x,7,1500000\n"+
				"2021-06-30,y,7,\n")
		r := source.NewReader(dir)

		var got [][]any
		err := r.Each(ctx, source.Valuations, func(rec []any) error {
			got = append(got, rec)
			return nil
		})

		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 2)
		So(got[0][0], ShouldEqual, int64(7))
		So(got[0][1], ShouldEqual, "2020-01-15")
		So(got[0][2].(decimal.Decimal).Equal(decimal.NewFromInt(1500000)), ShouldBeTrue)
		So(got[1][2], ShouldBeNil)
	})

	Convey("Given a file missing a required column", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "clubs.csv", "club_id,name\n1,Ajax\n")
		err := source.NewReader(dir).Each(ctx, source.Clubs, func([]any) error { return nil })
		So(err, ShouldWrap, source.ErrSchemaMismatch)
		So(err.Error(), ShouldContainSubstring, "domestic_competition_id")
	})

	Convey("Given a malformed value", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "clubs.csv", "club_id,name,domestic_competition_id\nabc,Ajax,NL1\n")
		err := source.NewReader(dir).Each(ctx, source.Clubs, func([]any) error { return nil })
		So(err, ShouldWrap, source.ErrMalformedRecord)
	})

	Convey("Given a missing file", t, func() {
		r := source.NewReader(t.TempDir())
		err := r.Each(ctx, source.Players, func([]any) error { return nil })
		So(err, ShouldWrap, source.ErrSourceNotFound)
		So(r.Check(), ShouldWrap, source.ErrSourceNotFound)
	})
}

func TestParse(t *testing.T) {
	Convey("Given typed cells", t, func() {
		v, err := source.Parse(source.Integer, "185.0")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, int64(185))

		_, err = source.Parse(source.Integer, "185.5")
		So(err, ShouldWrap, source.ErrMalformedRecord)

		v, err = source.Parse(source.Real, "180.5")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 180.5)

		v, err = source.Parse(source.Text, "  ")
		So(err, ShouldBeNil)
		So(v, ShouldBeNil)

		_, err = source.Parse(source.Date, "15/01/2020")
		So(err, ShouldWrap, source.ErrMalformedRecord)
	})
}

func TestReadHTML(t *testing.T) {
	Convey("Given a saved page", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "page.html", "<table>\xff</table>")

		html, err := source.ReadHTML(filepath.Join(dir, "page.html"))
		So(err, ShouldBeNil)
		So(html, ShouldEqual, "<table>\uFFFD</table>")

		_, err = source.ReadHTML(filepath.Join(dir, "missing.html"))
		So(err, ShouldWrap, source.ErrSourceNotFound)
	})
}
