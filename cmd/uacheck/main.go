package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
)

// uacheck evaluates a user-agent string against the signature table and
// prints the detection matches and remediation decision. With no -ua
// flag, user-agent strings are read one per line from stdin.
func main() {
	ua := flag.String("ua", "", "user-agent string to check (default: read lines from stdin)")
	pageURL := flag.String("url", "https://example.com/", "page URL the decision applies to")
	overlay := flag.String("signatures", "", "optional YAML signature overlay file")
	asJSON := flag.Bool("json", false, "emit JSON instead of text")
	flag.Parse()

	table := signature.NewTable()
	if *overlay != "" {
		var err error
		table, err = signature.NewTableWithOverlay(*overlay)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "uacheck: %v\n", err)
			os.Exit(1)
		}
	}

	if *ua != "" {
		check(table, *ua, *pageURL, *asJSON)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		check(table, line, *pageURL, *asJSON)
	}
	if err := scanner.Err(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "uacheck: read stdin: %v\n", err)
		os.Exit(1)
	}
}

func check(table *signature.Table, ua, pageURL string, asJSON bool) {
	matches := table.DetectAll(ua)
	decision := remedy.Decide(matches, pageURL)

	if asJSON {
		out := struct {
			UserAgent string            `json:"user_agent"`
			Matches   []signature.AppID `json:"matches"`
			Decision  remedy.Decision   `json:"decision"`
		}{ua, matches, decision}
		data, err := json.Marshal(out)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "uacheck: marshal: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if len(matches) == 0 {
		fmt.Printf("no in-app browser detected\n")
		return
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, string(m))
	}
	fmt.Printf("matched: %s\n", strings.Join(ids, ", "))
	switch decision.Kind {
	case remedy.ActionExternalRedirect:
		fmt.Printf("remediation: escape to external browser (%s)\n", decision.App)
	case remedy.ActionGuidance:
		fmt.Printf("remediation: guidance dialog for %s\n", decision.Guidance.DisplayName)
	}
}
