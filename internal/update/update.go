package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// releasesURL is the latest-release endpoint consulted on startup.
const releasesURL = "https://api.github.com/repos/nodpi/nodpi-proxy/releases/latest"

// requestTimeout caps the release lookup; startup never waits on it.
const requestTimeout = 3 * time.Second

type release struct {
	TagName string `json:"tag_name"`
}

// Check fetches the latest release tag and reports whether it differs
// from the running version. Any failure is returned to the caller, which
// is expected to drop it silently.
func Check(version string) (latest string, newer bool, err error) {
	client := &http.Client{Timeout: requestTimeout}

	req, err := http.NewRequest(http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("update check: unexpected status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", false, err
	}

	latest = strings.TrimPrefix(rel.TagName, "v")
	return latest, latest != "" && latest != version, nil
}
