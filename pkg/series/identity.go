package series

import "fmt"

// Identity is the stable key distinguishing one scan series from another.
// Two slices share an Identity iff their display defaults, presets and
// projection context are interchangeable.
type Identity struct {
	Study  string
	Series string
}

// IsZero returns true when no series has been identified yet.
func (id Identity) IsZero() bool {
	return id.Study == "" && id.Series == ""
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s", id.Study, id.Series)
}

// Key identifies a single slice: the series it belongs to plus its
// instance index within the stack. Measurement shapes are owned by Keys
// and filtered by Key at display time.
type Key struct {
	Identity Identity
	Instance int
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Identity, k.Instance)
}
