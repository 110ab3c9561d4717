package signature

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	uaKakao     = "Mozilla/5.0 (Linux; Android 13) AppleWebKit/537.36 Mobile Safari/537.36 KAKAOTALK 10.4.3"
	uaLine      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Line/13.12.0"
	uaMessenger = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit [FBAN/MessengerForiOS;FBAV/123.0]"
	uaSafari    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15"
)

func TestMatchAppKnownSignatures(t *testing.T) {
	table := NewTable()

	cases := []struct {
		name string
		id   AppID
		ua   string
		want bool
	}{
		{"kakaotalk", AppKakaoTalk, uaKakao, true},
		{"kakaotalk lowercase", AppKakaoTalk, "something kakaotalk something", true},
		{"line", AppLine, uaLine, true},
		{"line not matched inside word", AppLine, "Mozilla/5.0 outline/1.0", false},
		{"messenger", AppMessenger, uaMessenger, true},
		{"instagram", AppInstagram, "Mozilla/5.0 ... Instagram 300.0.0.0", true},
		{"naver", AppNaver, "Mozilla/5.0 ... NAVER(inApp; search; 2000; 12.0.1)", true},
		{"daum", AppDaum, "Mozilla/5.0 ... DaumApps/5.0", true},
		{"everytime", AppEverytime, "Mozilla/5.0 ... everytimeApp", true},
		{"safari no match", AppKakaoTalk, uaSafari, false},
		{"wrong app", AppLine, uaKakao, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := table.MatchApp(tc.id, tc.ua); got != tc.want {
				t.Fatalf("MatchApp(%s, %q) = %v; want %v", tc.id, tc.ua, got, tc.want)
			}
		})
	}
}

func TestMatchAppEmptyUserAgent(t *testing.T) {
	table := NewTable()
	for _, r := range table.Rules() {
		if table.MatchApp(r.ID, "") {
			t.Fatalf("MatchApp(%s, \"\") = true; want false", r.ID)
		}
	}
}

func TestMatchAppUnknownID(t *testing.T) {
	table := NewTable()
	if table.MatchApp("NOPE", uaKakao) {
		t.Fatal("MatchApp(NOPE) = true; want false")
	}
}

func TestDetectAllPreservesTableOrder(t *testing.T) {
	table := NewTable()

	// A user-agent matching several signatures at once.
	ua := "instagram kakaotalk Line/1.0"
	got := table.DetectAll(ua)
	want := []AppID{AppKakaoTalk, AppLine, AppInstagram}
	if len(got) != len(want) {
		t.Fatalf("DetectAll() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DetectAll()[%d] = %s; want %s", i, got[i], want[i])
		}
	}
}

func TestDetectAllMessengerScenario(t *testing.T) {
	table := NewTable()
	got := table.DetectAll(uaMessenger)
	if len(got) != 1 || got[0] != AppMessenger {
		t.Fatalf("DetectAll(messenger ua) = %v; want [MESSENGER]", got)
	}
}

func TestDetectAllStandardBrowser(t *testing.T) {
	table := NewTable()
	if got := table.DetectAll(uaSafari); len(got) != 0 {
		t.Fatalf("DetectAll(safari ua) = %v; want empty", got)
	}
	if got := table.DetectAll(""); len(got) != 0 {
		t.Fatalf("DetectAll(\"\") = %v; want empty", got)
	}
}

func TestNewTableWithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signatures.yaml")
	overlay := "signatures:\n  - id: MYAPP\n    pattern: myapp/\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	table, err := NewTableWithOverlay(path)
	if err != nil {
		t.Fatalf("NewTableWithOverlay() error = %v", err)
	}
	if !table.MatchApp("MYAPP", "Mozilla/5.0 MyApp/2.1") {
		t.Fatal("MatchApp(MYAPP) = false; want true")
	}

	// Overlay entries rank below every built-in.
	got := table.DetectAll("kakaotalk myapp/1")
	if len(got) != 2 || got[0] != AppKakaoTalk || got[1] != "MYAPP" {
		t.Fatalf("DetectAll() = %v; want [KAKAOTALK MYAPP]", got)
	}
}

func TestNewTableWithOverlayRejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signatures.yaml")
	overlay := "signatures:\n  - id: KAKAOTALK\n    pattern: whatever\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	if _, err := NewTableWithOverlay(path); err == nil {
		t.Fatal("NewTableWithOverlay() = nil error; want duplicate id error")
	}
}

func TestNewTableWithOverlayRejectsBadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signatures.yaml")
	overlay := "signatures:\n  - id: BROKEN\n    pattern: \"([\"\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	if _, err := NewTableWithOverlay(path); err == nil {
		t.Fatal("NewTableWithOverlay() = nil error; want pattern compile error")
	}
}
