package worldstore

import "fmt"

// OpResult is the failure taxonomy returned by mutating store operations
// (spec §4.1). The zero value, OK, means the mutation succeeded.
type OpResult uint8

const (
	OK OpResult = iota
	NoSuchID
	CollisionWithTerrain
	CollisionWithStructure
	InvalidAttachment
	DuplicateStableID
)

func (r OpResult) String() string {
	switch r {
	case OK:
		return "OK"
	case NoSuchID:
		return "NoSuchID"
	case CollisionWithTerrain:
		return "CollisionWithTerrain"
	case CollisionWithStructure:
		return "CollisionWithStructure"
	case InvalidAttachment:
		return "InvalidAttachment"
	case DuplicateStableID:
		return "DuplicateStableID"
	default:
		return "Unknown"
	}
}

// Error adapts an OpResult to the error interface so it can be returned
// directly (and wrapped with fmt.Errorf("...: %w", err)) from operations
// that also need to carry extra detail.
type Error struct {
	Result  OpResult
	Context string
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Result.String()
	}
	return fmt.Sprintf("%s: %s", e.Result, e.Context)
}

func Err(r OpResult, context string) error {
	if r == OK {
		return nil
	}
	return &Error{Result: r, Context: context}
}

// ResultOf extracts the OpResult from an error produced by Err. It returns
// OK if err is nil, and NoSuchID for any error not produced by Err.
func ResultOf(err error) OpResult {
	if err == nil {
		return OK
	}
	if e, ok := err.(*Error); ok {
		return e.Result
	}
	return NoSuchID
}
