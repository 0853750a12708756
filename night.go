package main

import "fmt"

// resolveNight consumes the collected night actions and transitions the room
// to day (or end). It runs at most once per night, synchronously inside the
// submission that completed the last required category, so no separate
// scheduler is involved. Assumes r.mu is held.
//
// Protection is strictly night-scoped: every protected flag is cleared
// before this night's angel target is applied.
func (r *Room) resolveNightLocked() []outbound {
	actions := r.state.NightActions
	messages := []string{}

	for _, p := range r.players {
		p.Protected = false
	}

	if target := r.playerByID(actions.AngelTarget); target != nil && target.Alive {
		target.Protected = true
	}

	if target := r.playerByID(actions.AssassinTarget); target != nil && target.Alive {
		if target.Protected {
			messages = append(messages, "A player was saved by the Angel tonight!")
		} else {
			target.Alive = false
			messages = append(messages, fmt.Sprintf("%s was murdered during the night!", target.Name))
		}
	}

	winner := evaluateWinner(r.players)

	r.state.NightActions = NightActions{}
	r.state.NightMessages = messages
	r.state.Winner = winner

	if winner != WinnerNone {
		r.state.Phase = PhaseEnd
		return []outbound{broadcast(GameEndedMessage{
			Type:    "game_ended",
			Players: r.revealAllLocked(),
			Winner:  winner,
			Message: winnerMessage(winner),
		})}
	}

	// The round only advances when a full night/day cycle completes, so day
	// keeps the current round number.
	r.state.Phase = PhaseDay

	events := make([]outbound, 0, len(r.players))
	for _, p := range r.players {
		events = append(events, unicast(p.ID, NightProcessedMessage{
			Type:      "night_processed",
			Players:   r.viewForLocked(p.ID),
			GameState: r.wireStateLocked(dawnMessage),
		}))
	}
	return events
}

// nightCompleteLocked reports whether every role category that still has a
// living holder has submitted a target. Categories whose holders are all
// dead are not waited on.
func (r *Room) nightCompleteLocked() bool {
	actions := r.state.NightActions

	assassinsDone := !r.hasLivingRoleLocked(RoleAssassin) || actions.AssassinTarget != ""
	detectivesDone := !r.hasLivingRoleLocked(RoleDetective) || actions.DetectiveTarget != ""
	angelsDone := !r.hasLivingRoleLocked(RoleAngel) || actions.AngelTarget != ""

	return assassinsDone && detectivesDone && angelsDone
}
