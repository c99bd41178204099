package scenario

import (
	"fmt"
	"strings"
)

// Kind names one of the built-in workloads.
type Kind int

const (
	KindEmit Kind = iota
	KindRead
	KindMixed
	KindDescendants
	KindSSE
)

var kindNames = [...]string{"emit", "read", "mixed", "descendants", "sse"}

// Kinds lists every workload, in display order.
func Kinds() []Kind {
	return []Kind{KindEmit, KindRead, KindMixed, KindDescendants, KindSSE}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a workload name into a Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scenario %q, want one of %s", name, strings.Join(kindNames[:], "|"))
}

// ReadOp is a single read request type.
type ReadOp string

const (
	ReadEvent       ReadOp = "event"
	ReadChildren    ReadOp = "children"
	ReadHeads       ReadOp = "heads"
	ReadDescendants ReadOp = "descendants"
)

// ParseReadOp validates a read operation name.
func ParseReadOp(name string) (ReadOp, error) {
	switch op := ReadOp(strings.ToLower(strings.TrimSpace(name))); op {
	case ReadEvent, ReadChildren, ReadHeads, ReadDescendants:
		return op, nil
	}
	return "", fmt.Errorf("unknown read op %q, want one of event|children|heads|descendants", name)
}
