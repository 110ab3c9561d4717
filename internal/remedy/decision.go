// Package remedy selects and executes the remediation for a detected
// in-app browser: a guidance dialog for most host applications, or a
// fallback-chained escape to an external browser for the one application
// that honors browser-level redirection.
package remedy

import "github.com/dgnsrekt/webview_escape/internal/signature"

// ActionKind enumerates the possible remediation decisions.
type ActionKind string

const (
	ActionNone             ActionKind = "none"
	ActionGuidance         ActionKind = "guidance"
	ActionExternalRedirect ActionKind = "external_redirect"
)

// GuidanceConfig is the static, user-facing remediation data for one
// host application.
type GuidanceConfig struct {
	ID          signature.AppID `json:"id"`
	DisplayName string          `json:"display_name"`
	IconGlyph   string          `json:"icon_glyph"`
	AccentColor string          `json:"accent_color"`
	Hint        string          `json:"hint"`
}

// Decision is the outcome of evaluating detector matches against the
// remediation configuration.
type Decision struct {
	Kind     ActionKind      `json:"kind"`
	App      signature.AppID `json:"app,omitempty"`
	Guidance *GuidanceConfig `json:"guidance,omitempty"`
	// URL is the page URL the remediation applies to; the escape chain
	// navigates to it (or a sentinel-marked variant of it).
	URL string `json:"url,omitempty"`
}

// GenericGuidance is shown for matched applications without a dedicated
// config. Showing an unnecessary dialog is safer than staying silent
// inside an unknown WebView.
var GenericGuidance = GuidanceConfig{
	ID:          "",
	DisplayName: "in-app browser",
	IconGlyph:   "🌐",
	AccentColor: "#555555",
	Hint:        "open_in_browser",
}

var guidanceByApp = map[signature.AppID]GuidanceConfig{
	signature.AppKakaoTalk: {
		ID:          signature.AppKakaoTalk,
		DisplayName: "KakaoTalk",
		IconGlyph:   "💬",
		AccentColor: "#FEE500",
		Hint:        "use_menu_open_browser",
	},
	signature.AppMessenger: {
		ID:          signature.AppMessenger,
		DisplayName: "Messenger",
		IconGlyph:   "✉",
		AccentColor: "#0084FF",
		Hint:        "use_menu_open_browser",
	},
	signature.AppInstagram: {
		ID:          signature.AppInstagram,
		DisplayName: "Instagram",
		IconGlyph:   "📷",
		AccentColor: "#E4405F",
		Hint:        "use_dots_open_browser",
	},
	signature.AppNaver: {
		ID:          signature.AppNaver,
		DisplayName: "NAVER",
		IconGlyph:   "🔎",
		AccentColor: "#03C75A",
		Hint:        "use_menu_open_browser",
	},
}

// GuidanceFor returns the dedicated config for an application, or the
// generic fallback when none exists.
func GuidanceFor(id signature.AppID) GuidanceConfig {
	if cfg, ok := guidanceByApp[id]; ok {
		return cfg
	}
	return GenericGuidance
}

// ConfiguredApps returns the application ids that carry a dedicated
// guidance config, in no particular order.
func ConfiguredApps() []signature.AppID {
	out := make([]signature.AppID, 0, len(guidanceByApp))
	for id := range guidanceByApp {
		out = append(out, id)
	}
	return out
}

// Decide maps ordered detector matches to a remediation. Empty matches
// mean a standard browser and no action. LINE escapes to an external
// browser; every other match gets a guidance dialog, first-match-wins
// with the generic fallback. A non-empty match never decides none.
func Decide(matches []signature.AppID, currentURL string) Decision {
	if len(matches) == 0 {
		return Decision{Kind: ActionNone}
	}

	for _, id := range matches {
		if id == signature.AppLine {
			return Decision{Kind: ActionExternalRedirect, App: id, URL: currentURL}
		}
		if cfg, ok := guidanceByApp[id]; ok {
			return Decision{Kind: ActionGuidance, App: id, Guidance: &cfg, URL: currentURL}
		}
	}

	generic := GenericGuidance
	return Decision{Kind: ActionGuidance, App: matches[0], Guidance: &generic, URL: currentURL}
}
