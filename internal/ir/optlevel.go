package ir

// OptLevel selects how aggressively Parse rewrites the lowered IR.
type OptLevel int

const (
	// O0 emits one IR op per source token: no folding, no peephole
	// rewrites. Useful for inspecting exactly what the source says.
	O0 OptLevel = iota

	// O1 folds consecutive SHIFT/ADD tokens into single ops, drops
	// no-op SHIFT 0 / ADD 0, and removes empty [] loops used as
	// comments.
	O1

	// O2 additionally recognizes common idioms: [-] / [+] become
	// ZERO, and the single-step transfer loop [->+<] (and its
	// mirror [-<+>]) becomes ADDTO.
	O2
)

// String returns the flag-style name of the optimization level.
func (l OptLevel) String() string {
	switch l {
	case O0:
		return "O0"
	case O1:
		return "O1"
	case O2:
		return "O2"
	default:
		return "O?"
	}
}
