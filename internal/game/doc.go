// Package game runs carrom matches between a scripted human agent and the
// computer opponent on top of the physics world.
//
// The main type is Session, the root controller. It owns the match tally,
// the opponent, the world and the current match, and advances everything one
// tick at a time:
//
//	s, err := game.NewSession(game.Config{Agent: agent, Logger: logger})
//	// headless
//	result, err := s.PlayMatch(ctx)
//	// or live, one Step per clock tick
//	err = s.Run(ctx)
//
// # Turn flow
//
// Each tick the session lets the side to play act (the agent on the human
// turn, the opponent's staged sequence on its turn), steps the world, scores
// pocketed pieces, penalises a pocketed striker and, once everything has
// stopped, either hands the turn over or completes the match. A completed
// match is recorded exactly once before the next rack is placed.
//
// # Concurrency
//
// A session is not safe for concurrent use. The goroutine calling Step, Run
// or PlayMatch is its only writer; presentation layers receive immutable
// Frame values through OnFrame instead of reading session state.
package game
