package checkpointer

import "fmt"

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	saver    Saveable

	// tag returns the tag under which to save the policy.
	//
	// If each policy should be saved in a separate file with each file
	// having an incremented number as a suffix (e.g. step1.policy,
	// step2.policy, ..., stepK.policy), then use TagEnumerator.
	// If the tag does not matter, TagTimer can be used instead:
	//
	// n := NewNStep(10, agent, TagTimer("checkpoint"))
	tag func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps. If
// n < 1, the returned Checkpointer never saves.
func NewNStep(n int, saver Saveable, tag func() string) Checkpointer {
	return &nStep{
		interval: n,
		saver:    saver,
		tag:      tag,
	}
}

// Checkpoint saves the policy by calling SavePolicy if step is a
// positive multiple of the checkpoint interval
func (n *nStep) Checkpoint(step int) (string, error) {
	if n.interval < 1 || step < 1 || step%n.interval != 0 {
		return "", nil
	}

	path, err := n.saver.SavePolicy(n.tag())
	if err != nil {
		return "", fmt.Errorf("checkpoint: %w", err)
	}
	return path, nil
}
