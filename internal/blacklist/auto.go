package blacklist

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

// probeTimeout caps the total latency Observe adds to a cold CONNECT.
const probeTimeout = 4 * time.Second

// probeUserAgent makes the probe look like ordinary browser traffic so a
// DPI box classifies it the same way it would the real connection.
const probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// AutoList learns which hosts are blocked by probing them directly. A
// host whose HTTPS probe stalls until the timeout is assumed to sit
// behind DPI and is fragmented from then on; a host that answers at all
// is left alone. Learned blocks are appended to the blacklist file; the
// file is never read back, so every run starts with empty sets.
type AutoList struct {
	client *http.Client

	blockedMu sync.Mutex
	blocked   map[string]struct{}

	allowedMu sync.Mutex
	allowed   map[string]struct{}

	fileMu sync.Mutex
	file   *os.File
}

// NewAuto opens path in append mode for recording learned blocks and
// returns an auto-learning engine with empty sets.
func NewAuto(path string) (*AutoList, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blacklist %s: %w", path, err)
	}
	return &AutoList{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				// The probe only cares whether bytes come back,
				// not who signed the certificate.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		blocked: make(map[string]struct{}),
		allowed: make(map[string]struct{}),
		file:    f,
	}, nil
}

// Close releases the append handle on the blacklist file.
func (a *AutoList) Close() error {
	a.fileMu.Lock()
	defer a.fileMu.Unlock()
	return a.file.Close()
}

// IsFragmentTarget reports whether host has been learned as blocked.
func (a *AutoList) IsFragmentTarget(host string) bool {
	h := Normalize(host)
	a.blockedMu.Lock()
	defer a.blockedMu.Unlock()
	_, ok := a.blocked[h]
	return ok
}

// Observe probes https://host once and classifies it. Any response, no
// matter the status, means the host is reachable and goes to the allowed
// set. A timeout is read as a DPI-stalled handshake: the host goes to
// the blocked set and is appended to the blacklist file. Every other
// failure (refused, reset, DNS) leaves the sets untouched.
func (a *AutoList) Observe(host string) {
	h := Normalize(host)
	if a.seen(h) {
		return
	}

	req, err := http.NewRequest(http.MethodGet, "https://"+host, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := a.client.Do(req)
	if err == nil {
		resp.Body.Close()
		a.allowedMu.Lock()
		a.allowed[h] = struct{}{}
		a.allowedMu.Unlock()
		return
	}

	var nerr net.Error
	if !errors.As(err, &nerr) || !nerr.Timeout() {
		return
	}

	a.blockedMu.Lock()
	a.blocked[h] = struct{}{}
	a.blockedMu.Unlock()

	a.fileMu.Lock()
	fmt.Fprintln(a.file, h)
	a.fileMu.Unlock()
}

// seen reports whether host is already classified in either set. The two
// sets are locked one at a time; there is no cross-set transaction.
func (a *AutoList) seen(host string) bool {
	a.blockedMu.Lock()
	_, blocked := a.blocked[host]
	a.blockedMu.Unlock()
	if blocked {
		return true
	}
	a.allowedMu.Lock()
	_, allowed := a.allowed[host]
	a.allowedMu.Unlock()
	return allowed
}
