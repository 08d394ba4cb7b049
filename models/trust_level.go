package models

// TrustLevel is the totally ordered capability tier a Trustee holds within a
// Circle. Gate checks compare numeric values, never names: a member "at least"
// satisfies a requirement when actual >= required.
type TrustLevel int

const (
	// LevelRead allows decrypting circle data.
	LevelRead TrustLevel = 1

	// LevelWrite allows storing and replacing circle data.
	LevelWrite TrustLevel = 2

	// LevelAdmin allows managing trustees. Every circle must keep at least
	// one trustee at this level.
	LevelAdmin TrustLevel = 3
)

// AtLeast reports whether l satisfies the required level.
func (l TrustLevel) AtLeast(required TrustLevel) bool {
	return l >= required
}

// String returns the stable name persisted for the level.
func (l TrustLevel) String() string {
	switch l {
	case LevelRead:
		return "READ"
	case LevelWrite:
		return "WRITE"
	case LevelAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// TrustLevelByName resolves a persisted level name. The ok flag is false for
// unknown names.
func TrustLevelByName(name string) (TrustLevel, bool) {
	switch name {
	case "READ":
		return LevelRead, true
	case "WRITE":
		return LevelWrite, true
	case "ADMIN":
		return LevelAdmin, true
	default:
		return 0, false
	}
}
