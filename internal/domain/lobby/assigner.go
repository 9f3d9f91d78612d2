package lobby

import (
	"slices"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// TeamAssigner splits a deduplicated roster into the two teams. The engine
// stores whatever split it returns.
type TeamAssigner interface {
	Assign(roster []contest.PlayerID) (teamA, teamB []contest.PlayerID, err error)
}

// AlternatingAssigner keeps roster order and deals players A, B, A, B...
type AlternatingAssigner struct{}

func (AlternatingAssigner) Assign(roster []contest.PlayerID) ([]contest.PlayerID, []contest.PlayerID, error) {
	teamA := make([]contest.PlayerID, 0, (len(roster)+1)/2)
	teamB := make([]contest.PlayerID, 0, len(roster)/2)
	for i, playerID := range roster {
		if i%2 == 0 {
			teamA = append(teamA, playerID)
			continue
		}
		teamB = append(teamB, playerID)
	}
	return teamA, teamB, nil
}

// BalancedAssigner sorts the roster and gives the first half to team A, so
// the split does not depend on join order.
type BalancedAssigner struct{}

func (BalancedAssigner) Assign(roster []contest.PlayerID) ([]contest.PlayerID, []contest.PlayerID, error) {
	sorted := slices.Clone(roster)
	slices.Sort(sorted)
	half := (len(sorted) + 1) / 2
	return slices.Clone(sorted[:half]), slices.Clone(sorted[half:]), nil
}
