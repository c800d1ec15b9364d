package browser

import (
	"strings"
	"testing"
)

func TestLoaderScriptTemplating(t *testing.T) {
	url := "https://cdn.example/rrweb.umd.cjs"
	script := LoaderScript(url)

	if !strings.Contains(script, url) {
		t.Fatal("loader script missing CDN URL")
	}
	if strings.Contains(script, "{{CDN_URL}}") {
		t.Fatal("loader script still contains template placeholder")
	}
}

func TestEmbeddedScriptsNotEmpty(t *testing.T) {
	scripts := map[string]string{
		"loader":           loaderScript,
		"wait-ready":       waitReadyScript,
		"start-recording":  startRecordingScript,
		"resume-recording": resumeRecordingScript,
		"status-probe":     statusProbeScript,
		"flush-events":     flushEventsScript,
		"stop-recording":   stopRecordingScript,
	}
	for name, script := range scripts {
		if strings.TrimSpace(script) == "" {
			t.Errorf("%s script is empty", name)
		}
	}
}

func TestScriptsShareFlagKey(t *testing.T) {
	for name, script := range map[string]string{
		"loader":         loaderScript,
		"stop-recording": stopRecordingScript,
		"set-flag":       setShouldRecordScript(true),
	} {
		if !strings.Contains(script, shouldRecordKey) {
			t.Errorf("%s script does not reference %s", name, shouldRecordKey)
		}
	}
}

func TestDecodeDump(t *testing.T) {
	events, err := decodeDump(`{"events":[{"type":3},{"type":2}]}`)
	if err != nil {
		t.Fatalf("decodeDump: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	events, err = decodeDump(`{"events":[]}`)
	if err != nil {
		t.Fatalf("decodeDump empty: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}

	if _, err := decodeDump("not json"); err == nil {
		t.Fatal("decodeDump accepted malformed input")
	}
}

func TestSetShouldRecordScript(t *testing.T) {
	if !strings.Contains(setShouldRecordScript(true), `"true"`) {
		t.Error("set-flag script missing true literal")
	}
	if !strings.Contains(setShouldRecordScript(false), `"false"`) {
		t.Error("set-flag script missing false literal")
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	resolved := ResolveConfig(Config{})
	if resolved.Driver != DriverChromedp {
		t.Fatalf("default driver = %q, want chromedp", resolved.Driver)
	}

	resolved = ResolveConfig(Config{Driver: DriverPlaywright, CDPUrl: "ws://localhost:9222"})
	if resolved.Driver != DriverPlaywright || resolved.CDPUrl != "ws://localhost:9222" {
		t.Fatalf("resolve dropped explicit values: %+v", resolved)
	}
}
