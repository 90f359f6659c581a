package core

// ValidGraphName reports whether name is a legal graph/core name: it must
// start with a letter, underscore, or hyphen, and every subsequent byte
// must be a letter, digit, underscore, or hyphen (spec.md §4.6/§9). A
// leading hyphen is deliberately allowed, matching the source behavior
// this was distilled from.
func ValidGraphName(name string) bool {
	if name == "" {
		return false
	}
	if !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameCont(name[i]) {
			return false
		}
	}
	return true
}

func isNameStart(b byte) bool {
	return isAlpha(b) || b == '_' || b == '-'
}

func isNameCont(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '_' || b == '-'
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
