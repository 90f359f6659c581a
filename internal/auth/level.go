package auth

import "fmt"

// AccessLevel is the ordered enum from spec.md §3: read < write < admin.
type AccessLevel int

const (
	// LevelRead is the default access level of every new session.
	LevelRead AccessLevel = iota
	LevelWrite
	LevelAdmin
)

// String returns the wire representation of a level ("read", "write",
// "admin").
func (l AccessLevel) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseAccessLevel maps a group-file/wire level string to an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "read":
		return LevelRead, nil
	case "write":
		return LevelWrite, nil
	case "admin":
		return LevelAdmin, nil
	default:
		return 0, fmt.Errorf("auth: unknown access level %q", s)
	}
}
