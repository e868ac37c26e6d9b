package tracker

import "github.com/samuelfneumann/discretesac/timestep"

const EpisodeLength = "Episode length"

// episodeLength tracks the lengths of episodes in an experiment.
// Note that an episode must finish for its length to be tracked.
type episodeLength struct {
	sink Sink
}

// NewEpisodeLength returns a new Tracker which writes the length of
// each episode to sink when the episode finishes
func NewEpisodeLength(sink Sink) Tracker {
	return &episodeLength{sink}
}

// Track writes the episode length to the Sink if the timestep is the
// last in its episode
func (e *episodeLength) Track(t timestep.TimeStep, step int) {
	if t.Last() {
		e.sink.AddScalar(EpisodeLength, float64(t.Number), step)
	}
}
