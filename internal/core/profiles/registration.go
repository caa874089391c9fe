package profiles

import "github.com/JonMunkholm/lanes/internal/core"

func init() {
	registerEligibility()
	registerRoster()
}

// Eligibility exports list the events each bowler entered. A "doubles"
// entry needs a partner on the roster before it can be committed.
func registerEligibility() {
	core.Register(core.Profile{
		Key:         "eligibility",
		Label:       "Event eligibility",
		Description: "Event entries from the registration tool.",
		Required:    []core.Field{core.FieldEvents},
		Accepts:     []core.Field{core.FieldEvents, core.FieldAverage},
	})
}

func registerRoster() {
	core.Register(core.Profile{
		Key:         "roster",
		Label:       "Roster details",
		Description: "Contact details and any other catalogue field present in the file.",
	})
}
