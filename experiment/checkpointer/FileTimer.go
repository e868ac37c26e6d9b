package checkpointer

import (
	"fmt"
	"time"
)

// TagTimer returns a function which will append to a tag the number of
// nanoseconds since January 1, 1970.
func TagTimer(name string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v", name, time.Now().UnixNano())
	}
}
