package browserenv

import (
	"encoding/json"
	"fmt"
)

// evalEnvelope is the uniform JSON shape every injected snippet returns.
type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func buildIIFE(body string) string {
	return `(function(){
try {
` + body + `
} catch (err) {
return JSON.stringify({ok:false,error_code:"` + CodeEvalFailure + `",error_message:String(err && err.message || err)});
}
})()`
}

func wrapJSEval(body string) string { return buildIIFE(body) }

// jsReadEnvironment snapshots the detection inputs: user-agent, page URL
// and preferred languages. Missing pieces come back empty rather than
// failing; detection is defined over whatever the environment exposes.
func jsReadEnvironment() string {
	return wrapJSEval(`
var nav = typeof navigator === "undefined" ? null : navigator;
var loc = typeof location === "undefined" ? null : location;
var langs = [];
if (nav && nav.languages && nav.languages.length) {
  for (var i = 0; i < nav.languages.length; i++) langs.push(String(nav.languages[i]));
} else if (nav && nav.language) {
  langs.push(String(nav.language));
}
return JSON.stringify({ok:true,data:{
  user_agent: nav && nav.userAgent ? String(nav.userAgent) : "",
  url: loc && loc.href ? String(loc.href) : "",
  languages: langs
}});
`)
}

// jsNavigate points the current browsing context at the URL. The call is
// fire-and-forget: success means the assignment did not throw, nothing
// more.
func jsNavigate(url string) string {
	return wrapJSEval(fmt.Sprintf(`
location.href = %s;
return JSON.stringify({ok:true,data:{status:"navigating"}});
`, jsString(url)))
}

// jsShowDialog removes any previous guidance overlay, injects the new
// markup, and runs the copy-button wiring script.
func jsShowDialog(markup, copyScript string) string {
	return wrapJSEval(fmt.Sprintf(`
var prev = document.getElementById("wve-guidance-overlay");
if (prev && prev.parentNode) prev.parentNode.removeChild(prev);
var host = document.createElement("div");
host.innerHTML = %s;
document.body.appendChild(host.firstChild);
%s
return JSON.stringify({ok:true,data:{status:"shown"}});
`, jsString(markup), copyScript))
}
