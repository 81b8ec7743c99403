// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// probeTimeout bounds each discovery probe. Discovery runs at startup
// on the interactive path, so the budget per candidate is tight.
const probeTimeout = 1 * time.Second

// envLANHost names an extra candidate host for discovery, for setups
// where LM Studio runs on another machine on the local network.
const envLANHost = "AURAFLOW_LAN_HOST"

// defaultCandidates are the hosts probed in order. LM Studio's server
// listens on port 1234 by default.
var defaultCandidates = []string{
	"http://localhost:1234",
	"http://127.0.0.1:1234",
}

// Discover probes for a running LM Studio instance and returns the base
// URL of the first one that answers /v1/models. The host named by
// AURAFLOW_LAN_HOST is tried first when set. Returns ErrNotDetected when
// no candidate responds.
func Discover(ctx context.Context) (string, error) {
	candidates := defaultCandidates
	if host := os.Getenv(envLANHost); host != "" {
		candidates = append([]string{normalizeHost(host)}, candidates...)
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if probe(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", ErrNotDetected
}

// probe checks whether an OpenAI-compatible server answers at baseURL.
func probe(ctx context.Context, baseURL string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, modelsURL(baseURL), nil)
	if err != nil {
		return false
	}

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// normalizeHost turns a bare host or host:port into a probe-able base
// URL, defaulting the scheme to http and the port to LM Studio's 1234.
func normalizeHost(host string) string {
	if len(host) >= 7 && (host[:7] == "http://" || (len(host) >= 8 && host[:8] == "https://")) {
		return host
	}
	if !hasPort(host) {
		host = fmt.Sprintf("%s:1234", host)
	}
	return "http://" + host
}

// hasPort reports whether host carries an explicit port.
func hasPort(host string) bool {
	for i := len(host) - 1; i >= 0; i-- {
		switch host[i] {
		case ':':
			return true
		case ']': // bracketed IPv6 literal without port
			return false
		}
	}
	return false
}
