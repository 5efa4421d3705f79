package directory

import "errors"

// Kind classifies a Gateway error so the coherence layer can branch on it
// (spec §4.3, §7) without depending on any one backend's error types.
type Kind int

const (
	// KindStorageFault is any non-classified failure: network, timeout,
	// serialization. Propagated to the caller wrapped, never swallowed.
	KindStorageFault Kind = iota
	// KindNotFound is absence, not a fault.
	KindNotFound
	// KindUniqueViolation means the row (or membership pair) already exists.
	KindUniqueViolation
	// KindForeignKeyViolation means a referenced user/group row is gone.
	KindForeignKeyViolation
)

// ErrNotFound is the sentinel Gateway implementations wrap for absence.
var ErrNotFound = errors.New("directory: not found")

// ErrUniqueViolation is the sentinel for a duplicate unique key.
var ErrUniqueViolation = errors.New("directory: unique key violation")

// ErrForeignKeyViolation is the sentinel for a dangling reference.
var ErrForeignKeyViolation = errors.New("directory: foreign key violation")

// ErrReadOnly is returned by read-only Gateway implementations (e.g.
// ldapdirectory) for any mutating call.
var ErrReadOnly = errors.New("directory: gateway is read-only")

// Classify inspects err (via errors.Is against the sentinels above) and
// returns the Kind the coherence layer should act on. A nil err is not a
// valid input and Classify should not be called with one.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUniqueViolation):
		return KindUniqueViolation
	case errors.Is(err, ErrForeignKeyViolation):
		return KindForeignKeyViolation
	default:
		return KindStorageFault
	}
}
