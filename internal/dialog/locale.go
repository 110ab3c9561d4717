// Package dialog renders the guidance modal shown inside a detected
// in-app browser. Rendering is a pure function of config and locale;
// injection into a page happens elsewhere, through the environment.
package dialog

import "strings"

// Locale selects the dialog language. Korean is the primary locale and
// English the fallback; anything unrecognized resolves to English.
type Locale string

const (
	LocaleKorean  Locale = "ko"
	LocaleEnglish Locale = "en"
)

// PickLocale maps preferred-language tags (e.g. "ko-KR", "en-US") to a
// supported locale, falling back to English.
func PickLocale(languages []string) Locale {
	for _, lang := range languages {
		tag := strings.ToLower(strings.TrimSpace(lang))
		if tag == "ko" || strings.HasPrefix(tag, "ko-") {
			return LocaleKorean
		}
		if tag == "en" || strings.HasPrefix(tag, "en-") {
			return LocaleEnglish
		}
	}
	return LocaleEnglish
}

type textSet struct {
	Title      string
	HintByKey  map[string]string
	CopyLabel  string
	CopiedOK   string
	CopiedFail string
}

var localeStrings = map[Locale]textSet{
	LocaleEnglish: {
		Title: "Open in your browser",
		HintByKey: map[string]string{
			"open_in_browser":       "This page may not work correctly in an in-app browser. Please open it in your browser.",
			"use_menu_open_browser": "Tap the menu button and choose \"Open in browser\".",
			"use_dots_open_browser": "Tap the \"…\" button and choose \"Open in browser\".",
		},
		CopyLabel:  "Copy link",
		CopiedOK:   "Copied ✓",
		CopiedFail: "Copy failed. Long-press the address bar instead",
	},
	LocaleKorean: {
		Title: "브라우저에서 열어주세요",
		HintByKey: map[string]string{
			"open_in_browser":       "인앱 브라우저에서는 이 페이지가 정상 동작하지 않을 수 있어요. 기본 브라우저로 열어주세요.",
			"use_menu_open_browser": "메뉴 버튼을 눌러 \"다른 브라우저로 열기\"를 선택해주세요.",
			"use_dots_open_browser": "\"…\" 버튼을 눌러 \"브라우저에서 열기\"를 선택해주세요.",
		},
		CopyLabel:  "링크 복사",
		CopiedOK:   "복사됨 ✓",
		CopiedFail: "복사 실패. 주소창을 길게 눌러주세요",
	},
}

func (l Locale) strings() textSet {
	if s, ok := localeStrings[l]; ok {
		return s
	}
	return localeStrings[LocaleEnglish]
}

func (l Locale) hint(key string) string {
	s := l.strings()
	if h, ok := s.HintByKey[key]; ok {
		return h
	}
	return s.HintByKey["open_in_browser"]
}
