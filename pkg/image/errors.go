package image

import "fmt"

// Kind tags the reason a facade operation failed. Every operation fails
// with at most one Kind.
type Kind int

const (
	// NotFound means the name was not present in the directory being
	// looked up.
	NotFound Kind = iota
	// AlreadyExists means a create/link tried to reuse an existing name.
	AlreadyExists
	// NotADirectory means a path traversal walked into a regular file.
	NotADirectory
	// IsADirectory means link was asked to hard-link a directory.
	IsADirectory
	// NotEmpty means erase targeted a directory that still has entries.
	NotEmpty
	// OutOfInodes means the inode allocator has no free slots left.
	OutOfInodes
	// OutOfBlocks means the block allocator has no free slots left.
	OutOfBlocks
	// Corrupt means an invariant the engine relies on was violated, e.g.
	// a double free or an attempt to shrink a length-1 chain.
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case NotADirectory:
		return "NotADirectory"
	case IsADirectory:
		return "IsADirectory"
	case NotEmpty:
		return "NotEmpty"
	case OutOfInodes:
		return "OutOfInodes"
	case OutOfBlocks:
		return "OutOfBlocks"
	case Corrupt:
		return "Corrupt"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single tagged error value every facade operation surfaces
// on failure. Callers are expected to inspect Kind (with errors.As), log,
// and continue with the next command.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, &image.Error{Kind: image.NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
