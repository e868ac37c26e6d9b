package experiment

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/discretesac/agent"
	env "github.com/samuelfneumann/discretesac/environment"
	"github.com/samuelfneumann/discretesac/experiment/checkpointer"
	"github.com/samuelfneumann/discretesac/experiment/tracker"
	"github.com/samuelfneumann/discretesac/expreplay"
	ts "github.com/samuelfneumann/discretesac/timestep"
)

// FinalTag is the tag under which the policy is saved when an
// experiment ends
const FinalTag = "final"

// learnCounter is a Learner which counts its learning steps
type learnCounter interface {
	LearnSteps() int
}

// Online is an experiment that trains an agent online from an
// experience replay buffer. After each environment step the transition
// is added to the buffer, and once the exploration steps are over the
// agent is updated with a batch sampled from the buffer.
type Online struct {
	env.Environment
	agent.Agent
	buffer expreplay.ExperienceReplayer

	maxSteps     int
	currentSteps int

	exploreSteps int
	rng          *rand.Rand

	sink         tracker.Sink
	trackers     []tracker.Tracker
	checkpointer checkpointer.Checkpointer
	log          *log.Entry

	lastLearnSteps int
}

// Option configures an Online experiment
type Option func(*Online)

// WithExploration makes the experiment take uniform random actions
// for the first steps environment steps. No learning happens during
// these steps.
func WithExploration(steps int, seed uint64) Option {
	return func(o *Online) {
		o.exploreSteps = steps
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithTrackers registers Trackers with the experiment, which track
// each TimeStep returned by the environment
func WithTrackers(t ...tracker.Tracker) Option {
	return func(o *Online) {
		for _, tr := range t {
			o.Register(tr)
		}
	}
}

// WithCheckpointer sets the Checkpointer of the experiment
func WithCheckpointer(c checkpointer.Checkpointer) Option {
	return func(o *Online) {
		o.checkpointer = c
	}
}

// WithLogger sets the logger of the experiment
func WithLogger(entry *log.Entry) Option {
	return func(o *Online) {
		o.log = entry
	}
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The experiment is run for steps
// environment steps. The agent's losses are written to sink after each
// learning step.
func NewOnline(e env.Environment, a agent.Agent,
	b expreplay.ExperienceReplayer, steps int, sink tracker.Sink,
	opts ...Option) *Online {
	o := &Online{
		Environment: e,
		Agent:       a,
		buffer:      b,
		maxSteps:    steps,
		sink:        sink,
		log:         log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(0))
	}
	return o
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Run runs the experiment until the maximum number of steps is reached,
// the context is cancelled, or an error occurs.
//
// However Run returns, the environment is closed. Unless the agent's
// parameters diverged, its policy is saved under FinalTag if the agent
// is an agent.PolicySaver.
func (o *Online) Run(ctx context.Context) (err error) {
	defer func() {
		if closeErr := o.Environment.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "could not close environment")
		}
	}()
	defer func() {
		if agent.IsNumericalDivergence(err) {
			return
		}
		if saver, ok := o.Agent.(agent.PolicySaver); ok {
			path, saveErr := saver.SavePolicy(FinalTag)
			if saveErr != nil && err == nil {
				err = errors.Wrap(saveErr, "could not save policy")
				return
			}
			o.log.WithField("path", path).Info("saved policy")
		}
	}()

	step, err := o.Environment.Reset()
	if err != nil {
		return errors.Wrap(err, "run: could not reset environment")
	}

	for o.currentSteps < o.maxSteps {
		select {
		case <-ctx.Done():
			o.log.WithField("step", o.currentSteps).Warn("experiment cancelled")
			return ctx.Err()
		default:
		}

		step, err = o.step(step)
		if err != nil {
			return errors.Wrapf(err, "run: step %v", o.currentSteps)
		}
	}

	return nil
}

// step takes a single environmental step from step, adds the
// transition to the buffer, and updates the agent. The TimeStep from
// which to take the next step is returned.
func (o *Online) step(step ts.TimeStep) (ts.TimeStep, error) {
	exploring := o.currentSteps < o.exploreSteps

	var action int
	var err error
	if exploring {
		action = o.rng.Intn(o.Environment.NumActions())
	} else {
		action, err = o.Agent.SelectAction(step.Observation)
		if err != nil {
			return ts.TimeStep{}, err
		}
	}

	next, err := o.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, err
	}

	if err := o.buffer.Add(ts.NewTransition(step, action, next)); err != nil {
		return ts.TimeStep{}, err
	}

	if !exploring {
		if err := o.learn(); err != nil {
			return ts.TimeStep{}, err
		}
	}

	o.currentSteps++
	o.track(next)

	if o.checkpointer != nil {
		path, err := o.checkpointer.Checkpoint(o.currentSteps)
		if err != nil {
			return ts.TimeStep{}, err
		}
		if path != "" {
			o.log.WithFields(log.Fields{
				"step": o.currentSteps,
				"path": path,
			}).Debug("checkpoint")
		}
	}

	if next.Last() {
		return o.Environment.Reset()
	}
	return next, nil
}

// learn samples a batch from the buffer and updates the agent. If the
// buffer does not hold enough transitions, the update is skipped.
func (o *Online) learn() error {
	batch, err := o.buffer.SampleBatch()
	if expreplay.IsInsufficientData(err) {
		return nil
	} else if err != nil {
		return err
	}

	if err := o.Agent.Update(batch, o.currentSteps); err != nil {
		return err
	}

	// Only report losses when a learning step actually happened
	if counter, ok := o.Agent.(learnCounter); ok {
		if counter.LearnSteps() == o.lastLearnSteps {
			return nil
		}
		o.lastLearnSteps = counter.LearnSteps()
	}
	if reporter, ok := o.Agent.(agent.LossReporter); ok {
		losses := reporter.Losses()
		names := make([]string, 0, len(losses))
		for name := range losses {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			o.sink.AddScalar(name, losses[name], o.currentSteps+1)
		}
	}
	return nil
}

// track tracks the current timestep with each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t, o.currentSteps)
	}
}

// closeAgent closes the agent if it holds resources
func closeAgent(a agent.Agent) error {
	if closer, ok := a.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
