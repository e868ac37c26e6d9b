// Package expreplay implements a fixed-capacity experience replay buffer
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/discretesac/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	Capacity   int // Maximum number of transitions stored
	SampleSize int // Number of transitions returned by SampleBatch()
}

// Validate returns an error if the Config cannot be used to construct
// a buffer
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return &ExpReplayError{
			Op: "validate",
			Err: fmt.Errorf("%w: capacity must be >= 1, have(%v)",
				ErrInvalidConfig, c.Capacity),
		}
	}
	if c.SampleSize < 1 {
		return &ExpReplayError{
			Op: "validate",
			Err: fmt.Errorf("%w: sample size must be >= 1, have(%v)",
				ErrInvalidConfig, c.SampleSize),
		}
	}
	if c.SampleSize > c.Capacity {
		return &ExpReplayError{
			Op: "validate",
			Err: fmt.Errorf("%w: cannot have batch size (%v) > buffer "+
				"capacity (%v)", ErrInvalidConfig, c.SampleSize, c.Capacity),
		}
	}
	return nil
}

// Create creates and returns the buffer described by the Config
func (c Config) Create(featureSize int, seed uint64) (*Buffer, error) {
	return New(c.Capacity, c.SampleSize, featureSize, seed)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of batchSize transitions from the buffer
	Sample(batchSize int) (Batch, error)

	// SampleBatch samples a batch of BatchSize() transitions
	SampleBatch() (Batch, error)

	// Len returns the current number of transitions in the buffer
	Len() int

	// Capacity returns the maximum number of transitions in the buffer
	Capacity() int

	// BatchSize returns the number of samples returned by SampleBatch()
	BatchSize() int
}

// Buffer is a ring buffer of transitions. Once full, each new
// transition overwrites the oldest one. Sampling draws indices
// uniformly with replacement from the stored range.
//
// Buffer performs no locking. A single goroutine must own all calls to
// Add and Sample.
type Buffer struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	terminalCache  []float64
	nextStateCache []float64

	cursor int // Next index to write
	count  int // Number of transitions stored

	sampler Selector

	capacity    int
	batchSize   int
	featureSize int
}

// New creates and returns a new Buffer which holds at most capacity
// transitions with states of featureSize features, and by default
// returns batches of batchSize transitions.
func New(capacity, batchSize, featureSize int, seed uint64) (*Buffer,
	error) {
	config := Config{Capacity: capacity, SampleSize: batchSize}
	if err := config.Validate(); err != nil {
		err.(*ExpReplayError).Op = "new"
		return nil, err
	}
	if featureSize < 1 {
		return nil, &ExpReplayError{
			Op: "new",
			Err: fmt.Errorf("%w: feature size must be >= 1, have(%v)",
				ErrInvalidConfig, featureSize),
		}
	}

	return &Buffer{
		stateCache:     make([]float64, capacity*featureSize),
		actionCache:    make([]int, capacity),
		rewardCache:    make([]float64, capacity),
		terminalCache:  make([]float64, capacity),
		nextStateCache: make([]float64, capacity*featureSize),

		sampler: NewUniformSelector(seed),

		capacity:    capacity,
		batchSize:   batchSize,
		featureSize: featureSize,
	}, nil
}

// Add adds a transition to the buffer, overwriting the oldest
// transition if the buffer is full
func (b *Buffer) Add(t timestep.Transition) error {
	if len(t.State) != b.featureSize || len(t.NextState) != b.featureSize {
		return &ExpReplayError{
			Op: "add",
			Err: fmt.Errorf("%w \n\twant(%v)\n\thave(%v, %v)", ErrFeatureSize,
				b.featureSize, len(t.State), len(t.NextState)),
		}
	}

	index := b.cursor
	stateInd := index * b.featureSize
	copy(b.stateCache[stateInd:stateInd+b.featureSize], t.State)
	copy(b.nextStateCache[stateInd:stateInd+b.featureSize], t.NextState)

	b.actionCache[index] = t.Action
	b.rewardCache[index] = t.Reward
	b.terminalCache[index] = t.TerminalFloat()

	b.cursor = (b.cursor + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}

	return nil
}

// Sample samples and returns a batch of batchSize transitions from the
// buffer. Sampling does not remove or reorder stored transitions.
func (b *Buffer) Sample(batchSize int) (Batch, error) {
	if batchSize < 1 {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: fmt.Errorf("%w: batch size %v < 1", ErrInvalidConfig, batchSize),
		}
	}
	if b.count < batchSize {
		return Batch{}, &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w: have(%v) want(%v)", ErrInsufficientData,
				b.count, batchSize),
		}
	}

	indices := b.sampler.choose(batchSize, b.count)
	batch := newBatch(batchSize, b.featureSize)

	for i, index := range indices {
		batchStartInd := i * b.featureSize
		expStartInd := index * b.featureSize
		copy(batch.States[batchStartInd:batchStartInd+b.featureSize],
			b.stateCache[expStartInd:expStartInd+b.featureSize],
		)
		copy(batch.NextStates[batchStartInd:batchStartInd+b.featureSize],
			b.nextStateCache[expStartInd:expStartInd+b.featureSize],
		)

		batch.Actions[i] = b.actionCache[index]
		batch.Rewards[i] = b.rewardCache[index]
		batch.Terminals[i] = b.terminalCache[index]
	}

	return batch, nil
}

// SampleBatch samples a batch of BatchSize() transitions
func (b *Buffer) SampleBatch() (Batch, error) {
	return b.Sample(b.batchSize)
}

// Len returns the current number of transitions in the buffer
func (b *Buffer) Len() int {
	return b.count
}

// Capacity returns the maximum number of transitions in the buffer
func (b *Buffer) Capacity() int {
	return b.capacity
}

// BatchSize returns the number of samples returned by SampleBatch()
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

// FeatureSize returns the dimension of the states stored
func (b *Buffer) FeatureSize() int {
	return b.featureSize
}

// String returns the string representation of the buffer
func (b *Buffer) String() string {
	baseStr := "Stored: %v/%v \nCursor: %v \nStates: %v \nActions: %v" +
		" \nRewards: %v \nTerminals: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, b.count, b.capacity, b.cursor, b.stateCache,
		b.actionCache, b.rewardCache, b.terminalCache, b.nextStateCache)
}
