package ir

import "fmt"

// Error is returned when parsing fails (eg. unmatched brackets).
type Error struct {
	Msg string
	Pos Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d col %d (offset %d)",
		e.Msg, e.Pos.Line, e.Pos.Column, e.Pos.Offset)
}

// IsIncompleteLoop reports whether err is an unmatched '[' error, the
// signal the REPL uses to keep buffering input instead of reporting a
// failure.
func IsIncompleteLoop(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Msg == "unmatched '['"
}
