package checkpointer

import "fmt"

// tagEnumerator enumerates tags
type tagEnumerator struct {
	i    int
	name string
}

// tag returns the next consecutive enumerated tag
func (t *tagEnumerator) tag() string {
	t.i++
	return fmt.Sprintf("%v%v", t.name, t.i)
}

// TagEnumerator returns a function which will return tags with a
// counter integer suffix. Each time the returned function is called,
// the counter suffix will be one higher than on the previous call,
// starting at start+1.
func TagEnumerator(start int, name string) func() string {
	enum := tagEnumerator{i: start, name: name}

	return enum.tag
}
