package main

// evaluateWinner is the faction-dominance test, run after every change to
// who is alive: a night kill, a day elimination, or a mid-game disconnect.
//
// The citizens win once no assassin is left alive. The assassins win once
// they are at least as numerous as everyone else still alive. Otherwise the
// game continues.
func evaluateWinner(players []*Player) Winner {
	aliveAssassins := 0
	aliveOthers := 0

	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleAssassin {
			aliveAssassins++
		} else {
			aliveOthers++
		}
	}

	switch {
	case aliveAssassins == 0:
		return WinnerCitizens
	case aliveAssassins >= aliveOthers:
		return WinnerAssassins
	default:
		return WinnerNone
	}
}
