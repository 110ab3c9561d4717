// Package signature holds the in-app browser signature table and the
// user-agent detector that evaluates it.
package signature

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// AppID identifies a known host application embedding a WebView.
type AppID string

const (
	AppKakaoTalk AppID = "KAKAOTALK"
	AppLine      AppID = "LINE"
	AppMessenger AppID = "MESSENGER"
	AppInstagram AppID = "INSTAGRAM"
	AppNaver     AppID = "NAVER"
	AppDaum      AppID = "DAUM"
	AppEverytime AppID = "EVERYTIME"
)

// Signature maps an application id to a case-insensitive user-agent rule.
type Signature struct {
	ID      AppID
	Pattern string

	re *regexp.Regexp
}

// builtinRules is the signature table in priority order. Table order is
// meaningful: DetectAll reports matches in this order and the redirector
// treats earlier entries as higher priority.
//
// Known permanent gaps, left unmatched on purpose rather than guessed at:
//   - Telegram uses an unmodified system browser as its WebView, so no
//     user-agent signature exists for it.
//   - Slack's Android WebView can display a popup but its iOS one cannot,
//     so a single signature would remediate the wrong platform.
var builtinRules = []Signature{
	{ID: AppKakaoTalk, Pattern: `kakaotalk`},
	{ID: AppLine, Pattern: `\bline/`},
	{ID: AppMessenger, Pattern: `fbav|fban`},
	{ID: AppInstagram, Pattern: `instagram`},
	{ID: AppNaver, Pattern: `naver\(inapp`},
	{ID: AppDaum, Pattern: `daumapps|daumdevice/mobile`},
	{ID: AppEverytime, Pattern: `everytimeapp`},
}

// Table is an ordered, immutable set of compiled signatures.
type Table struct {
	rules []Signature
	byID  map[AppID]*Signature
}

// NewTable compiles the built-in signature table.
func NewTable() *Table {
	t, err := newTable(builtinRules)
	if err != nil {
		// Built-in patterns are compile-tested; reaching here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return t
}

// NewTableWithOverlay compiles the built-in table plus extra signatures
// loaded from a YAML overlay file. Overlay entries rank below built-ins
// and may not reuse a built-in id.
func NewTableWithOverlay(path string) (*Table, error) {
	extra, err := loadOverlay(path)
	if err != nil {
		return nil, err
	}
	return newTable(append(append([]Signature{}, builtinRules...), extra...))
}

func newTable(rules []Signature) (*Table, error) {
	t := &Table{
		rules: make([]Signature, 0, len(rules)),
		byID:  make(map[AppID]*Signature, len(rules)),
	}
	for _, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("signature with empty id")
		}
		if _, dup := t.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate signature id %q", r.ID)
		}
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("signature %s: bad pattern %q: %w", r.ID, r.Pattern, err)
		}
		r.re = re
		t.rules = append(t.rules, r)
		t.byID[r.ID] = &t.rules[len(t.rules)-1]
	}
	return t, nil
}

// Rules returns the table entries in priority order.
func (t *Table) Rules() []Signature {
	out := make([]Signature, len(t.rules))
	copy(out, t.rules)
	return out
}

type overlayFile struct {
	Signatures []struct {
		ID      string `yaml:"id"`
		Pattern string `yaml:"pattern"`
	} `yaml:"signatures"`
}

func loadOverlay(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signature overlay: %w", err)
	}
	var f overlayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse signature overlay: %w", err)
	}
	out := make([]Signature, 0, len(f.Signatures))
	for _, s := range f.Signatures {
		out = append(out, Signature{ID: AppID(s.ID), Pattern: s.Pattern})
	}
	return out, nil
}
