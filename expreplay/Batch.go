package expreplay

// Batch is a batch of transitions sampled from a buffer, stored as five
// parallel sequences. Index i of each sequence belongs to the same
// transition. States and NextStates are stored in row major order with
// one row of Features() values per transition.
type Batch struct {
	States     []float64
	Actions    []int
	NextStates []float64
	Rewards    []float64
	Terminals  []float64 // 1.0 if the transition was terminal, else 0.0

	size     int
	features int
}

// newBatch allocates a Batch of size transitions with states of the
// given number of features
func newBatch(size, features int) Batch {
	return Batch{
		States:     make([]float64, size*features),
		Actions:    make([]int, size),
		NextStates: make([]float64, size*features),
		Rewards:    make([]float64, size),
		Terminals:  make([]float64, size),
		size:       size,
		features:   features,
	}
}

// NewBatch creates a Batch from row major states and next states. It
// panics if the sequences are not aligned.
func NewBatch(states []float64, actions []int, nextStates, rewards,
	terminals []float64) Batch {
	size := len(actions)
	if size == 0 || len(rewards) != size || len(terminals) != size {
		panic("newbatch: misaligned batch")
	}
	if len(states)%size != 0 || len(states) != len(nextStates) {
		panic("newbatch: misaligned states")
	}

	return Batch{
		States:     states,
		Actions:    actions,
		NextStates: nextStates,
		Rewards:    rewards,
		Terminals:  terminals,
		size:       size,
		features:   len(states) / size,
	}
}

// Size returns the number of transitions in the Batch
func (b Batch) Size() int {
	return b.size
}

// Features returns the dimension of each state in the Batch
func (b Batch) Features() int {
	return b.features
}

// State returns the state of transition i
func (b Batch) State(i int) []float64 {
	return b.States[i*b.features : (i+1)*b.features]
}

// NextState returns the next state of transition i
func (b Batch) NextState(i int) []float64 {
	return b.NextStates[i*b.features : (i+1)*b.features]
}
