package remedy

import "net/url"

// SentinelKey marks a URL as part of an in-progress escape to an external
// browser. Some host applications honor a same-origin navigation to a
// URL carrying this parameter as a cue to release the page to the system
// browser even when a direct window open is blocked.
const SentinelKey = "openExternalBrowser"

// State describes where a URL sits in the sentinel escape lifecycle.
type State string

const (
	// StateNormal: no sentinel present.
	StateNormal State = "normal"
	// StateEscaping: sentinel appended, navigation pending.
	StateEscaping State = "escaping"
	// StateEscaped: sentinel observed on load, cleanup pending.
	StateEscaped State = "escaped"
)

// AppendSentinel returns the URL with the sentinel appended as
// "openExternalBrowser=1". Existing query parameters are kept.
func AppendSentinel(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(SentinelKey, "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HasSentinel reports whether the sentinel parameter is present. A URL
// that fails to parse never has a sentinel.
func HasSentinel(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Has(SentinelKey)
}

// CleanupURL rebuilds the canonical URL from scheme, host and path only.
// Every query parameter is dropped, not just the sentinel; preserving
// unrelated parameters across the escape round-trip is explicitly not
// attempted.
func CleanupURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// StateOf classifies a loaded page URL: a present sentinel means the page
// just returned from an escape attempt and owes a cleanup navigation.
func StateOf(rawURL string) State {
	if HasSentinel(rawURL) {
		return StateEscaped
	}
	return StateNormal
}
