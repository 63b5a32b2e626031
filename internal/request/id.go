package request

import (
	"fmt"
	"sync/atomic"
)

// ID identifies one logical user operation from submission through
// completion or cancellation. IDs are process-unique, allocated in
// submission order, and never reused. Consumers compare them; only
// NextID constructs them.
type ID uint64

// NoID is the zero ID. No request ever carries it.
const NoID ID = 0

var idSeq atomic.Uint64

// NextID allocates a fresh ID. Safe for concurrent use.
func NextID() ID {
	return ID(idSeq.Add(1))
}

// String renders the ID for logs and the queue sidebar.
func (id ID) String() string {
	if id == NoID {
		return "req_0"
	}
	return fmt.Sprintf("req_%d", uint64(id))
}
