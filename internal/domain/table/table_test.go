package table_test

import (
	"testing"

	"github.com/okian/scout/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestColumnLabel(t *testing.T) {
	Convey("Given header columns", t, func() {
		So(table.Column{"Player"}.Label(), ShouldEqual, "Player")
		So(table.Column{"Unnamed: 1_level_0", "Player"}.Label(), ShouldEqual, "Player")
		So(table.Column{"Performance", "Gls"}.Label(), ShouldEqual, "Performance_Gls")
		So(table.Column{"", " Min "}.Label(), ShouldEqual, "Min")
	})
}

func TestRawColumnIndex(t *testing.T) {
	Convey("Given a raw table", t, func() {
		raw := table.Raw{Columns: []table.Column{{"Rk"}, {"player"}, {"Player"}}}
		So(raw.ColumnIndex("Player"), ShouldEqual, 2)
		So(raw.ColumnIndex("Squad"), ShouldEqual, -1)
	})
}

func TestValue(t *testing.T) {
	Convey("Given cell values", t, func() {
		So(table.Str("").IsNull(), ShouldBeTrue)
		So(table.Str("x").String(), ShouldEqual, "x")
		So(table.Num(90).String(), ShouldEqual, "90")
		So(table.Num(1.5).String(), ShouldEqual, "1.5")
		So(table.Null().Key(), ShouldEqual, table.Str("").Key())
		So(table.Num(1).Key(), ShouldNotEqual, table.Str("1").Key())
	})
}

func TestNormalizedLookup(t *testing.T) {
	Convey("Given a normalized table", t, func() {
		n := table.Normalized{Fields: []table.Field{{Name: "player"}, {Name: "age", Type: table.TypeNumber}}}
		So(n.FieldIndex("age"), ShouldEqual, 1)
		So(n.FieldIndex("squad"), ShouldEqual, -1)
		So(n.Names(), ShouldResemble, []string{"player", "age"})
		So(n.Fields[1].Type.String(), ShouldEqual, "number")
	})
}
