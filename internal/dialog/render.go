package dialog

import (
	"fmt"
	"html"

	"github.com/dgnsrekt/webview_escape/internal/remedy"
)

const overlayID = "wve-guidance-overlay"

// Render produces the full modal markup for one guidance config and
// locale. The output is self-contained (inline styles, inline copy
// script) so injecting it is a single document mutation.
func Render(cfg remedy.GuidanceConfig, pageURL string, locale Locale) string {
	s := locale.strings()
	name := html.EscapeString(cfg.DisplayName)
	accent := html.EscapeString(cfg.AccentColor)
	glyph := html.EscapeString(cfg.IconGlyph)
	hint := html.EscapeString(locale.hint(cfg.Hint))
	url := html.EscapeString(pageURL)

	return fmt.Sprintf(`<div id="%s" style="position:fixed;inset:0;z-index:2147483647;background:rgba(0,0,0,.72);display:flex;align-items:center;justify-content:center;font-family:-apple-system,'Segoe UI',sans-serif;">
  <div style="background:#fff;border-radius:12px;max-width:320px;margin:16px;padding:24px;text-align:center;border-top:4px solid %s;">
    <div style="font-size:40px;line-height:1;">%s</div>
    <div style="font-size:17px;font-weight:600;margin-top:12px;color:#111;">%s</div>
    <div style="font-size:13px;color:#666;margin-top:4px;">%s</div>
    <div style="font-size:14px;color:#333;margin-top:12px;line-height:1.5;">%s</div>
    <button id="wve-copy-btn" data-url="%s" style="margin-top:16px;width:100%%;padding:10px 0;border:0;border-radius:8px;background:%s;color:#111;font-size:14px;font-weight:600;">%s</button>
  </div>
</div>`,
		overlayID, accent, glyph,
		html.EscapeString(s.Title), name, hint,
		url, accent, html.EscapeString(s.CopyLabel))
}

// CopyScript wires the copy-link button. Two independent paths: the
// asynchronous clipboard API when present, otherwise a hidden-textarea
// selection with execCommand. Either outcome only changes the button
// label; nothing is reported back to the caller.
func CopyScript(locale Locale) string {
	s := locale.strings()
	return fmt.Sprintf(`(function(){
var btn = document.getElementById("wve-copy-btn");
if (!btn) return;
function done(ok) { btn.textContent = ok ? %q : %q; }
function legacyCopy(text) {
  try {
    var ta = document.createElement("textarea");
    ta.value = text;
    ta.style.position = "fixed";
    ta.style.opacity = "0";
    document.body.appendChild(ta);
    ta.focus();
    ta.select();
    var ok = document.execCommand("copy");
    document.body.removeChild(ta);
    return ok;
  } catch (_) { return false; }
}
btn.addEventListener("click", function(){
  var text = btn.getAttribute("data-url") || "";
  if (navigator.clipboard && navigator.clipboard.writeText) {
    navigator.clipboard.writeText(text).then(function(){ done(true); }, function(){ done(legacyCopy(text)); });
  } else {
    done(legacyCopy(text));
  }
});
})();`, s.CopiedOK, s.CopiedFail)
}
