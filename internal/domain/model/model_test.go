package model_test

import (
	"testing"

	model "github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/universe"
	"github.com/smartystreets/goconvey/convey"
)

func TestUniverseRow(t *testing.T) {
	convey.Convey("Given a universe row", t, func() {
		row := model.UniverseRow{
			SeasonAvailability: model.SeasonAvailability{PlayerID: 7, Season: "2022-2023", SeasonMinutes: 900},
			Position:           "Attack",
			SubPosition:        "Attacking Midfield",
			Age:                25,
		}

		convey.Convey("When projecting it onto the eligibility inputs", func() {
			c := row.Candidate()

			convey.Convey("Then the default criteria accept it", func() {
				convey.So(c.SeasonMinutes, convey.ShouldEqual, 900)
				convey.So(c.Age, convey.ShouldEqual, 25)
				convey.So(universe.New().Eligible(c), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the embedded aggregate is read", func() {
			convey.Convey("Then its fields are promoted", func() {
				convey.So(row.PlayerID, convey.ShouldEqual, 7)
				convey.So(row.Season, convey.ShouldEqual, "2022-2023")
			})
		})
	})
}
