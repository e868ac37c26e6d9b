package checkpointer

import (
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	tags []string
	err  error
}

func (r *recorder) SavePolicy(tag string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.tags = append(r.tags, tag)
	return tag + ".policy", nil
}

func TestNStep(t *testing.T) {
	r := &recorder{}
	c := NewNStep(3, r, TagEnumerator(0, "step"))

	for step := 0; step <= 10; step++ {
		path, err := c.Checkpoint(step)
		if err != nil {
			t.Fatal(err)
		}
		saved := path != ""
		if want := step > 0 && step%3 == 0; saved != want {
			t.Errorf("step %v: want saved %v have %v", step, want, saved)
		}
	}

	want := []string{"step1", "step2", "step3"}
	if len(r.tags) != len(want) {
		t.Fatalf("want tags %v have %v", want, r.tags)
	}
	for i := range want {
		if r.tags[i] != want[i] {
			t.Errorf("want tag %v have %v", want[i], r.tags[i])
		}
	}
}

func TestNStepDisabled(t *testing.T) {
	r := &recorder{}
	c := NewNStep(0, r, TagTimer("never"))
	for step := 0; step < 10; step++ {
		if _, err := c.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}
	if len(r.tags) != 0 {
		t.Errorf("disabled checkpointer saved %v", r.tags)
	}
}

func TestNStepError(t *testing.T) {
	want := errors.New("disk full")
	c := NewNStep(1, &recorder{err: want}, TagTimer("t"))
	if _, err := c.Checkpoint(1); !errors.Is(err, want) {
		t.Errorf("want wrapped save error have(%v)", err)
	}
}

func TestTagTimer(t *testing.T) {
	tag := TagTimer("checkpoint")()
	if !strings.HasPrefix(tag, "checkpoint-") {
		t.Errorf("want prefix checkpoint- have %v", tag)
	}
}
