package tracker

import (
	ts "github.com/samuelfneumann/discretesac/timestep"
)

const (
	AverageReturn  = "Average return"
	EpisodicReturn = "Episodic return"
)

// Return tracks the return of episodes in an experiment. On each
// tracked TimeStep, Return writes two scalars to its Sink:
//
//	Average return:  the total reward seen so far divided by the
//	                 number of episodes started so far
//	Episodic return: the return of the most recently finished
//	                 episode, or 0 if no episode has finished
//
// Note: the First TimeStep of an episode should not be tracked, since
// it carries no reward from the environment.
type Return struct {
	sink Sink

	totalReturn      float64
	currentReturn    float64
	previousReturn   float64
	episodes         int
	episodesFinished int
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(sink Sink) *Return {
	return &Return{sink: sink, episodes: 1}
}

// Track tracks the rewards seen on a timestep. When the TimeStep is the
// last in the episode, the episodic return is cached and a new episode
// is started.
func (r *Return) Track(t ts.TimeStep, step int) {
	r.totalReturn += t.Reward
	r.currentReturn += t.Reward

	if t.Last() {
		r.previousReturn = r.currentReturn
		r.currentReturn = 0.0
		r.episodes++
		r.episodesFinished++
	}

	r.sink.AddScalar(AverageReturn, r.totalReturn/float64(r.episodes), step)
	r.sink.AddScalar(EpisodicReturn, r.previousReturn, step)
}

// EpisodicReturn returns the return of the most recently finished
// episode
func (r *Return) EpisodicReturn() float64 {
	return r.previousReturn
}

// EpisodesFinished returns the number of episodes that have finished
func (r *Return) EpisodesFinished() int {
	return r.episodesFinished
}
