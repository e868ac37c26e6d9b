// Package tracker implements Sinks, which record scalar data generated
// during an experiment, and Trackers, which derive that data from the
// TimeSteps of an experiment
package tracker

import (
	ts "github.com/samuelfneumann/discretesac/timestep"
)

// Sink receives named scalar values indexed by the environment step at
// which they were generated
type Sink interface {
	AddScalar(tag string, value float64, step int)
}

// Tracker keeps track of experiment data by observing each TimeStep of
// an experiment and writing the data it derives to a Sink. The step
// argument is the total number of environment steps taken so far,
// which differs from the TimeStep's Number since the TimeStep is
// numbered within its episode.
type Tracker interface {
	Track(t ts.TimeStep, step int)
}

// multi is a Sink which forwards all scalars to each of a number of
// Sinks
type multi []Sink

// Multi returns a Sink which sends each scalar to all of sinks, in
// order
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

// AddScalar adds the scalar to each Sink
func (m multi) AddScalar(tag string, value float64, step int) {
	for _, sink := range m {
		sink.AddScalar(tag, value, step)
	}
}
