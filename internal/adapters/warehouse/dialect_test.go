package warehouse

import (
	"testing"

	"github.com/okian/scout/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPostgresDialect(t *testing.T) {
	Convey("Given the postgres dialect", t, func() {
		d, err := DialectFor(DriverPostgres)
		So(err, ShouldBeNil)

		Convey("Rows are bulk loaded with COPY and quoted column names", func() {
			So(d.bulk(), ShouldBeTrue)
			So(d.insertSQL("stg_fbref_standard_2023_2024", []string{"0", "nação", `x"y`}), ShouldEqual,
				`COPY "stg_fbref_standard_2023_2024" ("0", "nação", "x""y") FROM STDIN`)
		})

		Convey("Raw columns map onto native types", func() {
			So(d.ColumnType(source.Integer), ShouldEqual, "BIGINT")
			So(d.ColumnType(source.Decimal), ShouldEqual, "NUMERIC")
			So(d.ColumnType(source.Date), ShouldEqual, "DATE")
			So(d.NumberType(), ShouldEqual, "DOUBLE PRECISION")
			So(d.Placeholder(2), ShouldEqual, "$2")
		})
	})

	Convey("Given the sqlite dialect", t, func() {
		d, err := DialectFor(DriverSQLite)
		So(err, ShouldBeNil)

		Convey("Inserts quote every column", func() {
			So(d.bulk(), ShouldBeFalse)
			So(d.insertSQL("stg_x", []string{"0", `x"y`}), ShouldEqual, `INSERT INTO stg_x ("0", "x""y") VALUES (?, ?)`)
		})
	})
}
