package standing

// Standing is one team's record and rank inside a tournament.
type Standing struct {
	TournamentID   string
	TeamID         string
	Rank           int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
	// DecidedByLot marks rows whose rank against a neighbour was settled by the last-resort lot.
	DecidedByLot bool
}

const (
	PointsWin  = 3
	PointsDraw = 1
)
