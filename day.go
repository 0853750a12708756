package main

import "fmt"

// tallyVotes counts votes per target id.
func tallyVotes(votes map[string]string) map[string]int {
	counts := make(map[string]int, len(votes))
	for _, targetID := range votes {
		counts[targetID]++
	}
	return counts
}

// topVote returns the single target holding the strict maximum tally. A
// shared maximum (or an empty tally) is a tie and eliminates no one.
func topVote(counts map[string]int) (targetID string, tie bool) {
	maxVotes := 0
	for id, votes := range counts {
		switch {
		case votes > maxVotes:
			maxVotes = votes
			targetID = id
			tie = false
		case votes == maxVotes:
			tie = true
		}
	}
	if targetID == "" {
		tie = true
	}
	return targetID, tie
}

// resolveDayLocked consumes the collected votes and transitions the room to
// night (or end). Like night resolution it runs exactly once, inside the
// submission of the final vote. Assumes r.mu is held.
func (r *Room) resolveDayLocked() []outbound {
	counts := tallyVotes(r.state.DayVotes)
	messages := []string{}

	targetID, tie := topVote(counts)
	if tie {
		messages = append(messages, "The vote ended in a tie. Nobody was eliminated today.")
	} else if target := r.playerByID(targetID); target != nil {
		target.Alive = false
		messages = append(messages, fmt.Sprintf("%s was eliminated by the town's vote!", target.Name))
	}

	winner := evaluateWinner(r.players)

	r.state.DayVotes = make(map[string]string)
	r.state.DayMessages = messages
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

	r.state.Phase = PhaseNight
	r.state.Round++

	events := make([]outbound, 0, len(r.players))
	for _, p := range r.players {
		events = append(events, unicast(p.ID, DayProcessedMessage{
			Type:      "day_processed",
			Players:   r.viewForLocked(p.ID),
			GameState: r.wireStateLocked(nightfallMessage),
		}))
	}
	return events
}

// dayCompleteLocked reports whether every living player has cast a vote.
func (r *Room) dayCompleteLocked() bool {
	return len(r.state.DayVotes) == r.aliveCountLocked()
}
