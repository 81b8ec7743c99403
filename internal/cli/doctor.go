// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for auraflow.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: doctor
// Short:   Run connectivity and configuration diagnostics
// Aliases: diag, diagnose
//
// Examples:
//   auraflow doctor              Run all health checks
//   auraflow doctor --json       Health check results in JSON
//
// Health Checks Performed:
//   1. Config Valid       - Configuration file parses and validates
//   2. Backend Configured - A backend URL is set or discoverable
//   3. Backend Reachable  - The models endpoint responds
//   4. Model Loaded       - At least one model is available
//   5. Chat Endpoint      - The chat completions route exists
//   6. State Writable     - Conversation state directory permissions
//   7. Replay Transcripts - Built-in transcripts parse cleanly
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auraflow/internal/backend"
	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/replay"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	checkPassStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	checkWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	checkFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	checkMsgStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	fixStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Italic(true)
)

// doctorProbeTimeout bounds each network check.
const doctorProbeTimeout = 3 * time.Second

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the rendered marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), checkMsgStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// =============================================================================
// DOCTOR HANDLER
// =============================================================================

// HandleDoctor handles the "doctor" command.
func HandleDoctor(args Args) error {
	checks := runAllChecks(args)

	var passed, warned, failed int
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if args.JSON {
		return handleDoctorJSON(checks, passed, warned, failed)
	}

	fmt.Println(TitleStyle.Render("auraflow doctor"))
	for _, check := range checks {
		fmt.Println(check.Render())
	}

	fmt.Println()
	summary := fmt.Sprintf("%d passed, %d warnings, %d failed", passed, warned, failed)
	if failed > 0 {
		fmt.Println(checkFailStyle.Render(summary))
		return NewCommandError("doctor", "checks", fmt.Sprintf("%d checks failed", failed), nil)
	}
	if warned > 0 {
		fmt.Println(checkWarnStyle.Render(summary))
	} else {
		fmt.Println(checkPassStyle.Render(summary))
	}
	return nil
}

// doctorCheckJSON is the JSON shape of one check result.
type doctorCheckJSON struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

func handleDoctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	out := make([]doctorCheckJSON, 0, len(checks))
	for _, check := range checks {
		out = append(out, doctorCheckJSON{
			Name:    check.Name,
			Status:  strings.ToLower(check.Status.String()),
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	data := map[string]interface{}{
		"checks":  out,
		"passed":  passed,
		"warned":  warned,
		"failed":  failed,
		"healthy": failed == 0,
	}

	if err := NewJSONResponse("doctor", data).Print(); err != nil {
		return err
	}
	if failed > 0 {
		return NewCommandError("doctor", "checks", fmt.Sprintf("%d checks failed", failed), nil)
	}
	return nil
}

// =============================================================================
// CHECKS
// =============================================================================

// runAllChecks runs every health check in order. Network checks that
// depend on an unreachable backend degrade rather than repeat the same
// failure.
func runAllChecks(args Args) []*HealthCheck {
	checks := []*HealthCheck{checkConfigValid()}

	cfg := config.Global()
	backendCheck, baseURL := checkBackendConfigured(cfg, args)
	checks = append(checks, backendCheck)

	if baseURL != "" {
		reach, models := checkBackendReachable(baseURL)
		checks = append(checks, reach)
		if reach.Status == CheckPass {
			checks = append(checks, checkModelLoaded(models))
			checks = append(checks, checkChatEndpoint(baseURL))
		}
	}

	checks = append(checks, checkStateWritable(cfg))
	checks = append(checks, checkReplayTranscripts())

	return checks
}

func checkConfigValid() *HealthCheck {
	cfg, err := config.Load()
	if err != nil {
		return &HealthCheck{
			Name:    "Config Valid",
			Status:  CheckFail,
			Message: "Configuration: " + err.Error(),
			Fix:     "auraflow config init",
		}
	}
	if err := cfg.Validate(); err != nil {
		return &HealthCheck{
			Name:    "Config Valid",
			Status:  CheckFail,
			Message: "Configuration: " + err.Error(),
			Fix:     "auraflow config init",
		}
	}
	return &HealthCheck{
		Name:    "Config Valid",
		Status:  CheckPass,
		Message: "Configuration is valid",
	}
}

// checkBackendConfigured resolves the backend URL, probing for LM Studio
// when discovery is enabled. Returns the resolved URL for later checks.
func checkBackendConfigured(cfg *config.Config, args Args) (*HealthCheck, string) {
	baseURL := args.Backend
	if baseURL == "" {
		baseURL = cfg.Backend.BaseURL
	}
	if baseURL != "" {
		return &HealthCheck{
			Name:    "Backend Configured",
			Status:  CheckPass,
			Message: fmt.Sprintf("Backend %s (%s)", baseURL, backend.Detect(baseURL)),
		}, baseURL
	}

	if cfg.Backend.Discover {
		ctx, cancel := context.WithTimeout(context.Background(), doctorProbeTimeout)
		defer cancel()
		if url, err := backend.Discover(ctx); err == nil {
			return &HealthCheck{
				Name:    "Backend Configured",
				Status:  CheckPass,
				Message: "Discovered LM Studio at " + url,
			}, url
		}
	}

	return &HealthCheck{
		Name:    "Backend Configured",
		Status:  CheckFail,
		Message: "No backend URL configured and none discovered",
		Fix:     "auraflow config set backend.base_url http://localhost:1234",
	}, ""
}

func checkBackendReachable(baseURL string) (*HealthCheck, []backend.ModelInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), doctorProbeTimeout)
	defer cancel()

	models, err := backend.ListModels(ctx, baseURL)
	if err != nil {
		return &HealthCheck{
			Name:    "Backend Reachable",
			Status:  CheckFail,
			Message: "Models endpoint unreachable: " + err.Error(),
			Fix:     "Check that the backend is running at " + baseURL,
		}, nil
	}
	return &HealthCheck{
		Name:    "Backend Reachable",
		Status:  CheckPass,
		Message: "Models endpoint responding",
	}, models
}

func checkModelLoaded(models []backend.ModelInfo) *HealthCheck {
	if len(models) == 0 {
		return &HealthCheck{
			Name:    "Model Loaded",
			Status:  CheckWarn,
			Message: "Backend has no models loaded",
			Fix:     "Load a model in LM Studio before chatting",
		}
	}
	return &HealthCheck{
		Name:    "Model Loaded",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d model(s) available (%s)", len(models), models[0].ID),
	}
}

// checkChatEndpoint sends an empty POST to the chat route. Any response
// other than 404 means the route exists; the request shape is wrong on
// purpose so no completion is generated.
func checkChatEndpoint(baseURL string) *HealthCheck {
	url := chatProbeURL(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), doctorProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return &HealthCheck{
			Name:    "Chat Endpoint",
			Status:  CheckFail,
			Message: "Could not build chat probe: " + err.Error(),
		}
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: doctorProbeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return &HealthCheck{
			Name:    "Chat Endpoint",
			Status:  CheckFail,
			Message: "Chat endpoint unreachable: " + err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &HealthCheck{
			Name:    "Chat Endpoint",
			Status:  CheckFail,
			Message: "Chat route missing (404) at " + url,
			Fix:     "Verify the backend URL points at an OpenAI-compatible or Deer-Flow server",
		}
	}
	return &HealthCheck{
		Name:    "Chat Endpoint",
		Status:  CheckPass,
		Message: fmt.Sprintf("Chat route present (HTTP %d)", resp.StatusCode),
	}
}

// chatProbeURL mirrors the transport's endpoint selection.
func chatProbeURL(baseURL string) string {
	trimmed := strings.TrimSuffix(baseURL, "/")
	if backend.Detect(baseURL) == backend.ProtocolOpenAI {
		trimmed = strings.TrimSuffix(trimmed, "/v1")
		return trimmed + "/v1/chat/completions"
	}
	return trimmed + "/api/chat/stream"
}

func checkStateWritable(cfg *config.Config) *HealthCheck {
	statePath := cfg.Storage.Path
	if statePath == "" {
		p, err := cfg.StatePath()
		if err != nil {
			return &HealthCheck{
				Name:    "State Writable",
				Status:  CheckFail,
				Message: "Cannot resolve state path: " + err.Error(),
			}
		}
		statePath = p
	}

	dir := filepath.Dir(statePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &HealthCheck{
			Name:    "State Writable",
			Status:  CheckFail,
			Message: "Cannot create state directory: " + err.Error(),
			Fix:     "Check permissions on " + dir,
		}
	}

	probe := filepath.Join(dir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		return &HealthCheck{
			Name:    "State Writable",
			Status:  CheckFail,
			Message: "State directory not writable: " + err.Error(),
			Fix:     "Check permissions on " + dir,
		}
	}
	os.Remove(probe)

	return &HealthCheck{
		Name:    "State Writable",
		Status:  CheckPass,
		Message: "State directory writable (" + dir + ")",
	}
}

func checkReplayTranscripts() *HealthCheck {
	player := replay.NewPlayer()
	for _, name := range []string{replay.TranscriptDefault, replay.TranscriptAccepted, replay.TranscriptEditPlan} {
		events, err := player.Stream(context.Background(), replay.Options{
			ReplayID:    name,
			FastForward: true,
		})
		if err != nil {
			return &HealthCheck{
				Name:    "Replay Transcripts",
				Status:  CheckFail,
				Message: "Built-in transcript " + name + " failed to load: " + err.Error(),
			}
		}
		count := 0
		for range events {
			count++
		}
		if count == 0 {
			return &HealthCheck{
				Name:    "Replay Transcripts",
				Status:  CheckFail,
				Message: "Built-in transcript " + name + " is empty",
			}
		}
	}
	return &HealthCheck{
		Name:    "Replay Transcripts",
		Status:  CheckPass,
		Message: "Built-in transcripts parse cleanly",
	}
}
