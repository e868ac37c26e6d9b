// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/discretesac/environment"
	ts "github.com/samuelfneumann/discretesac/timestep"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Episodes terminate when the cart or pole leaves these bounds
	PositionThreshold float64 = 2.4
	FailAngle         float64 = 12 * 2 * math.Pi / 360

	// Starting states are sampled uniformly from ±StartBound
	StartBound float64 = 0.05

	// EpisodeSteps is the default number of steps before an episode is
	// truncated
	EpisodeSteps int = 500

	ObservationDims int = 4
	NumActions      int = 2
)

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The agent must keep the pole upright for as long as
// possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the direction of the force
// applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Accelerate right
//
// A reward of +1 is given on every step. Episodes terminate when the
// cart leaves [-2.4, 2.4] or the pole falls more than 12° from
// upright, and are truncated after a step limit.
type Cartpole struct {
	env.Starter
	stepLimiter env.StepLimit

	lastStep ts.TimeStep
	started  bool

	positionBounds r1.Interval
	angleBounds    r1.Interval
}

// New constructs a new Cartpole environment with starting states
// sampled using seed and episodes truncated after episodeSteps. If
// episodeSteps <= 0, episodes are never truncated.
func New(episodeSteps int, seed uint64) *Cartpole {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}

	return &Cartpole{
		Starter:        env.NewUniformStarter(bounds, seed),
		stepLimiter:    env.NewStepLimit(episodeSteps),
		positionBounds: r1.Interval{Min: -PositionThreshold, Max: PositionThreshold},
		angleBounds:    r1.Interval{Min: -FailAngle, Max: FailAngle},
	}
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.Start()
	c.lastStep = ts.New(ts.First, 0.0, state, 0, false)
	c.started = true

	return c.lastStep, nil
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep
func (c *Cartpole) Step(a int) (ts.TimeStep, error) {
	if !c.started || c.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: %w", env.ErrEpisodeOver)
	}
	if a < 0 || a >= NumActions {
		return ts.TimeStep{}, fmt.Errorf("step: %w: %v ∉ {0, 1}",
			env.ErrInvalidAction, a)
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state[0], state[1]
	th, thDot := state[2], state[3]

	force := ForceMag
	if a == 0 {
		force = -ForceMag
	}

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength
	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	newState := []float64{x, xDot, th, thDot}
	terminated := !within(c.positionBounds, x) || !within(c.angleBounds, th)

	stepType := ts.Mid
	if terminated {
		stepType = ts.Last
	}
	nextStep := ts.New(stepType, 1.0, newState, c.lastStep.Number+1,
		terminated)
	c.stepLimiter.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nil
}

// within returns whether x is in the closed interval i
func within(i r1.Interval, x float64) bool {
	return i.Min <= x && x <= i.Max
}

// ObservationDim returns the dimension of observations
func (c *Cartpole) ObservationDim() int {
	return ObservationDims
}

// NumActions returns the number of actions in the environment
func (c *Cartpole) NumActions() int {
	return NumActions
}

// Close closes the environment
func (c *Cartpole) Close() error {
	c.started = false
	return nil
}

func (c *Cartpole) String() string {
	return "Cartpole"
}
