package browser

import (
	_ "embed"
	"fmt"
	"strings"
)

// Page scripts for the recording bridge. Each file is one discrete unit
// of page-script evaluation; the loader additionally runs on every new
// document so recording survives navigation.

//go:embed js/loader.js
var loaderScript string

//go:embed js/wait-ready.js
var waitReadyScript string

//go:embed js/start-recording.js
var startRecordingScript string

//go:embed js/resume-recording.js
var resumeRecordingScript string

//go:embed js/status-probe.js
var statusProbeScript string

//go:embed js/flush-events.js
var flushEventsScript string

//go:embed js/stop-recording.js
var stopRecordingScript string

// shouldRecordKey is the sessionStorage key backing the persistence
// flag. sessionStorage survives same-tab navigation, which is exactly
// the lifetime the flag needs.
const shouldRecordKey = "__pagetap_should_record"

// LoaderScript returns the loader with the recorder CDN URL substituted.
func LoaderScript(cdnURL string) string {
	return strings.ReplaceAll(loaderScript, "{{CDN_URL}}", cdnURL)
}

// setShouldRecordScript writes the persistence flag in page scope.
func setShouldRecordScript(v bool) string {
	return fmt.Sprintf(`(() => {
		try {
			sessionStorage.setItem(%q, %q);
			return true;
		} catch (e) {
			return false;
		}
	})()`, shouldRecordKey, fmt.Sprintf("%t", v))
}
