package signature

// MatchApp tests the signature for the given id against a user-agent
// string. It returns false for an unknown id or an empty user-agent and
// never errors: detection is best-effort by design.
func (t *Table) MatchApp(id AppID, userAgent string) bool {
	if userAgent == "" {
		return false
	}
	sig, ok := t.byID[id]
	if !ok {
		return false
	}
	return sig.re.MatchString(userAgent)
}

// DetectAll evaluates every signature in table order and returns the ids
// that match, preserving table order as priority order. The result is
// recomputed on every call; nothing is cached.
func (t *Table) DetectAll(userAgent string) []AppID {
	if userAgent == "" {
		return nil
	}
	var matched []AppID
	for i := range t.rules {
		if t.rules[i].re.MatchString(userAgent) {
			matched = append(matched, t.rules[i].ID)
		}
	}
	return matched
}
