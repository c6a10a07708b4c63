package source

// ColumnType is the declared type of a raw CSV column.
type ColumnType uint8

const (
	Text ColumnType = iota
	Integer
	Real
	Decimal
	Date
)

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// Column is one required CSV column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema describes one raw source file. Only the listed columns are read;
// extra columns in the file are ignored.
type Schema struct {
	// Name is the raw table the source is loaded into.
	Name    string
	File    string
	Columns []Column
}

// Names lists the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Raw sources of the transfermarkt export.
var (
	Players = Schema{
		Name: "raw_players",
		File: "players.csv",
		Columns: []Column{
			{"player_id", Integer},
			{"name", Text},
			{"date_of_birth", Date},
			{"country_of_citizenship", Text},
			{"position", Text},
			{"sub_position", Text},
			{"foot", Text},
			{"height_in_cm", Real},
			{"current_club_id", Integer},
			{"current_club_name", Text},
			{"current_club_domestic_competition_id", Text},
			{"market_value_in_eur", Decimal},
			{"highest_market_value_in_eur", Decimal},
			{"contract_expiration_date", Date},
			{"agent_name", Text},
			{"url", Text},
		},
	}

	Clubs = Schema{
		Name: "raw_clubs",
		File: "clubs.csv",
		Columns: []Column{
			{"club_id", Integer},
			{"name", Text},
			{"domestic_competition_id", Text},
		},
	}

	Competitions = Schema{
		Name: "raw_competitions",
		File: "competitions.csv",
		Columns: []Column{
			{"competition_id", Text},
			{"name", Text},
			{"country_name", Text},
		},
	}

	Valuations = Schema{
		Name: "raw_player_valuations",
		File: "player_valuations.csv",
		Columns: []Column{
			{"player_id", Integer},
			{"date", Date},
			{"market_value_in_eur", Decimal},
		},
	}

	Appearances = Schema{
		Name: "raw_appearances",
		File: "appearances.csv",
		Columns: []Column{
			{"appearance_id", Text},
			{"game_id", Integer},
			{"player_id", Integer},
			{"player_club_id", Integer},
			{"player_current_club_id", Integer},
			{"date", Date},
			{"competition_id", Text},
			{"yellow_cards", Integer},
			{"red_cards", Integer},
			{"goals", Integer},
			{"assists", Integer},
			{"minutes_played", Integer},
		},
	}
)

// All returns every raw source in load order.
func All() []Schema {
	return []Schema{Players, Clubs, Competitions, Valuations, Appearances}
}
