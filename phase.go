package main

import "time"

// Phase state machine: lobby -> night -> day -> (night | end), with
// end -> lobby only through an explicit host restart. Every method locks the
// room, validates, mutates, and delivers its outcome before returning, so
// resolution can never run twice for the same phase and no two events for
// the same room ever interleave.

// StartGame assigns roles and opens the first night. Host only, and only
// with a legal player count.
func (r *Room) StartGame(requesterID string) ([]outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()

	if requesterID != r.hostID {
		return nil, errNotHost
	}
	if len(r.players) < minPlayers || len(r.players) > maxPlayers {
		return nil, errInvalidPlayerCount
	}

	assignRoles(r.players, r.rng)
	r.state = newGameState(PhaseNight, 1)

	events := make([]outbound, 0, len(r.players))
	for _, p := range r.players {
		events = append(events, unicast(p.ID, GameStartedMessage{
			Type:      "game_started",
			Role:      p.Role,
			Players:   r.viewForLocked(p.ID),
			GameState: r.wireStateLocked(""),
		}))
	}

	r.deliverLocked(events)
	return events, nil
}

// SubmitNightAction records a role-gated night action. Only one target is
// tracked per category, so a re-submission (or a second assassin) simply
// overwrites the previous choice. When every required category has a
// submission the night resolves synchronously.
func (r *Room) SubmitNightAction(actorID, targetID string, kind ActionKind) ([]outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()

	actor := r.playerByID(actorID)
	if actor == nil || !actor.Alive || r.state.Phase != PhaseNight {
		return nil, errInvalidAction
	}

	role, ok := roleForAction[kind]
	if !ok || actor.Role != role {
		return nil, errInvalidAction
	}

	target := r.playerByID(targetID)
	if target == nil || !target.Alive {
		return nil, errInvalidTarget
	}

	events := []outbound{}

	switch kind {
	case ActionKill:
		r.state.NightActions.AssassinTarget = targetID
	case ActionProtect:
		r.state.NightActions.AngelTarget = targetID
	case ActionInvestigate:
		r.state.NightActions.DetectiveTarget = targetID

		// The investigation result goes to the detective alone, immediately,
		// and does not affect the public night outcome.
		events = append(events, unicast(actorID, InvestigationResultMessage{
			Type:       "investigation_result",
			TargetName: target.Name,
			IsAssassin: target.Role == RoleAssassin,
		}))
	}

	events = append(events, unicast(actorID, ActionRegisteredMessage{
		Type:     "action_registered",
		Action:   kind,
		TargetID: targetID,
	}))

	if r.nightCompleteLocked() {
		events = append(events, r.resolveNightLocked()...)
	}

	r.deliverLocked(events)
	return events, nil
}

// SubmitDayVote records (or overwrites) a living player's elimination vote
// and broadcasts the updated tally. Once every living player has voted the
// day resolves synchronously.
func (r *Room) SubmitDayVote(voterID, targetID string) ([]outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()

	voter := r.playerByID(voterID)
	if voter == nil || !voter.Alive || r.state.Phase != PhaseDay {
		return nil, errInvalidVote
	}

	target := r.playerByID(targetID)
	if target == nil || !target.Alive || targetID == voterID {
		return nil, errInvalidTarget
	}

	r.state.DayVotes[voterID] = targetID

	events := []outbound{
		unicast(voterID, VoteRegisteredMessage{
			Type:     "vote_registered",
			TargetID: targetID,
		}),
		broadcast(VoteUpdateMessage{
			Type:      "vote_update",
			VoteCount: tallyVotes(r.state.DayVotes),
		}),
	}

	if r.dayCompleteLocked() {
		events = append(events, r.resolveDayLocked()...)
	}

	r.deliverLocked(events)
	return events, nil
}

// Restart returns a finished (or stuck) room to the lobby. Host only.
// Identity, names, and host status survive; every per-game field is cleared.
func (r *Room) Restart(requesterID string) ([]outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()

	if requesterID != r.hostID {
		return nil, errNotHost
	}

	clearRoles(r.players)
	r.state = newGameState(PhaseLobby, 0)

	events := []outbound{broadcast(GameRestartedMessage{
		Type:      "game_restarted",
		Players:   r.rosterLocked(),
		GameState: r.wireStateLocked(""),
	})}

	r.deliverLocked(events)
	return events, nil
}
