package domain

import "time"

// GameResult - outcome of a finished game for one participant
type GameResult string

const (
	GameResultWin  GameResult = "win"
	GameResultLoss GameResult = "loss"
)

func (r GameResult) Valid() bool {
	return r == GameResultWin || r == GameResultLoss
}

// NoFastestWin is reported for players that never won.
const NoFastestWin = 9999

// Stats - lifetime record of a player
type Stats struct {
	Username          string    `db:"username" json:"username"`
	Wins              int64     `db:"wins" json:"wins"`
	Losses            int64     `db:"losses" json:"losses"`
	FastestWinSeconds int64     `db:"fastest_win_seconds" json:"fastest_win_seconds"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GamesPlayed is wins plus losses.
func (s Stats) GamesPlayed() int64 {
	return s.Wins + s.Losses
}
