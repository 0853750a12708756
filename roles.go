package main

import "math/rand"

// roleQuotas determines the faction composition for a given player count:
// a second assassin from 9 players, a second detective from 11, always
// exactly one angel. Everyone else is a citizen.
func roleQuotas(playerCount int) (assassins, detectives, angels int) {
	assassins = 1
	if playerCount >= 9 {
		assassins = 2
	}

	detectives = 1
	if playerCount >= 11 {
		detectives = 2
	}

	return assassins, detectives, 1
}

// assignRoles builds the role pool for the roster size, shuffles it with the
// supplied source, and zips it onto the roster in join order. Every player
// comes out alive and unprotected. A seeded rng makes the assignment
// reproducible.
func assignRoles(players []*Player, rng *rand.Rand) {
	assassins, detectives, angels := roleQuotas(len(players))

	pool := make([]Role, 0, len(players))
	for i := 0; i < assassins; i++ {
		pool = append(pool, RoleAssassin)
	}
	for i := 0; i < detectives; i++ {
		pool = append(pool, RoleDetective)
	}
	for i := 0; i < angels; i++ {
		pool = append(pool, RoleAngel)
	}
	for len(pool) < len(players) {
		pool = append(pool, RoleCitizen)
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for i, p := range players {
		p.Role = pool[i]
		p.Alive = true
		p.Protected = false
	}
}

// clearRoles resets every per-game field while preserving identity, name,
// and host status. Used on restart.
func clearRoles(players []*Player) {
	for _, p := range players {
		p.Role = ""
		p.Alive = true
		p.Protected = false
	}
}
