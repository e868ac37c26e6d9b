package expreplay

import (
	"errors"
	"sort"
	"testing"

	"github.com/samuelfneumann/discretesac/timestep"
)

// transition returns a transition whose reward, state, and next state
// all encode the value i so that alignment can be checked after
// sampling
func transition(i int) timestep.Transition {
	v := float64(i)
	return timestep.Transition{
		State:     []float64{v, -v},
		Action:    i % 3,
		NextState: []float64{v + 0.5, -v - 0.5},
		Reward:    v,
		Terminal:  i%2 == 0,
	}
}

func TestAddNeverExceedsCapacity(t *testing.T) {
	const capacity = 10

	for _, k := range []int{0, 1, 7, 10, 23} {
		b, err := New(capacity, 4, 2, 1)
		if err != nil {
			t.Fatal(err)
		}

		total := capacity + k
		for i := 0; i < total; i++ {
			if err := b.Add(transition(i)); err != nil {
				t.Fatal(err)
			}
			if b.Len() > capacity {
				t.Fatalf("k=%v: buffer holds %v > %v transitions", k,
					b.Len(), capacity)
			}
		}

		if b.Len() != capacity {
			t.Errorf("k=%v: want len(%v) have(%v)", k, capacity, b.Len())
		}

		// The buffer should hold exactly the most recent transitions
		stored := append([]float64(nil), b.rewardCache...)
		sort.Float64s(stored)
		for i, r := range stored {
			want := float64(total - capacity + i)
			if r != want {
				t.Errorf("k=%v: want stored reward %v have(%v)", k, want, r)
			}
		}
	}
}

func TestSampleInsufficientData(t *testing.T) {
	b, err := New(10, 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		_, err := b.Sample(4)
		if !IsInsufficientData(err) {
			t.Errorf("len %v: want ErrInsufficientData have(%v)", b.Len(), err)
		}
		var replayErr *ExpReplayError
		if !errors.As(err, &replayErr) || replayErr.Op != "sample" {
			t.Errorf("len %v: want *ExpReplayError from sample have(%v)",
				b.Len(), err)
		}
		b.Add(transition(i))
	}

	if _, err := b.Sample(4); err != nil {
		t.Errorf("sample: unexpected error %v", err)
	}
	if _, err := b.Sample(5); !IsInsufficientData(err) {
		t.Errorf("sample(5): want ErrInsufficientData have(%v)", err)
	}
}

func TestSampleAligned(t *testing.T) {
	b, err := New(8, 5, 2, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		b.Add(transition(i))
	}

	for n := 0; n < 100; n++ {
		batch, err := b.SampleBatch()
		if err != nil {
			t.Fatal(err)
		}
		if batch.Size() != 5 || len(batch.Rewards) != 5 ||
			len(batch.Actions) != 5 || len(batch.Terminals) != 5 ||
			len(batch.States) != 10 || len(batch.NextStates) != 10 {
			t.Fatalf("sample: batch has wrong shape: %+v", batch)
		}

		for i := 0; i < batch.Size(); i++ {
			r := batch.Rewards[i]
			if r < 0 || r >= 6 {
				t.Errorf("sample: reward %v outside stored range", r)
			}
			orig := transition(int(r))
			if batch.Actions[i] != orig.Action ||
				batch.Terminals[i] != orig.TerminalFloat() ||
				batch.State(i)[0] != orig.State[0] ||
				batch.State(i)[1] != orig.State[1] ||
				batch.NextState(i)[0] != orig.NextState[0] ||
				batch.NextState(i)[1] != orig.NextState[1] {
				t.Errorf("sample: misaligned transition at index %v", i)
			}
		}
	}

	if b.Len() != 6 {
		t.Errorf("sample should be non-destructive: len %v", b.Len())
	}
}

func TestSampleCoverage(t *testing.T) {
	b, err := New(10, 4, 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b.Add(transition(i))
	}

	seen := make(map[float64]bool)
	for n := 0; n < 1000; n++ {
		batch, err := b.Sample(4)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range batch.Rewards {
			if r < 0 || r > 9 {
				t.Fatalf("sample: reward %v outside [0, 9]", r)
			}
			seen[r] = true
		}
	}

	for i := 0; i < 10; i++ {
		if !seen[float64(i)] {
			t.Errorf("sample: reward %v never sampled", i)
		}
	}
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		capacity, batch, features int
	}{
		{0, 1, 1},
		{5, 0, 1},
		{5, 6, 1},
		{5, 5, 0},
	}

	for _, test := range tests {
		_, err := New(test.capacity, test.batch, test.features, 0)
		if !IsInvalidConfig(err) {
			t.Errorf("new(%v, %v, %v): want ErrInvalidConfig have(%v)",
				test.capacity, test.batch, test.features, err)
		}
	}
}

func TestConfigCreate(t *testing.T) {
	c := Config{Capacity: 6, SampleSize: 3}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	b, err := c.Create(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if b.Capacity() != 6 || b.BatchSize() != 3 || b.Len() != 0 {
		t.Errorf("want capacity 6, batch size 3, and no transitions, "+
			"have %v, %v, %v", b.Capacity(), b.BatchSize(), b.Len())
	}

	c.SampleSize = 7
	if _, err := c.Create(2, 0); !IsInvalidConfig(err) {
		t.Errorf("sample size above capacity: want ErrInvalidConfig "+
			"have(%v)", err)
	}
}

func TestAddInvalidFeatures(t *testing.T) {
	b, err := New(5, 1, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	err = b.Add(transition(1))
	if !errors.Is(err, ErrFeatureSize) {
		t.Errorf("add: want ErrFeatureSize have(%v)", err)
	}
	if b.Len() != 0 {
		t.Errorf("add: invalid transition should not be stored")
	}
}
