package profiles

import "github.com/JonMunkholm/lanes/internal/core"

func init() {
	registerLanes()
	registerScores()
}

func registerLanes() {
	core.Register(core.Profile{
		Key:         "lanes",
		Label:       "Lane assignments",
		Description: "Lane draw exported from the scoring system.",
		Required:    []core.Field{core.FieldLane},
		Accepts:     []core.Field{core.FieldLane},
	})
}

func registerScores() {
	core.Register(core.Profile{
		Key:         "scores",
		Label:       "Game scores",
		Description: "Per-game scores and entering averages. Handicap follows the average.",
		Required:    []core.Field{core.FieldScores},
		Accepts:     []core.Field{core.FieldScores, core.FieldAverage, core.FieldLane},
	})
}
