// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for auraflow.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Show current configuration
//   set <key> <value>   Set a configuration value
//   path                Show config file location
//   init                Write a default config file
//   validate            Validate the config file
//
// Settable keys:
//   backend.base_url         Backend URL (http://host:port)
//   backend.discover         Probe for a local LM Studio (bool)
//   chat.report_style        academic, popular_science, news, social_media
//   chat.max_plan_iterations Positive integer
//   chat.max_step_num        Positive integer
//   chat.auto_accepted_plan  bool
//   chat.enable_deep_thinking bool
//   replay.enabled           bool
//   replay.fast_forward      bool
//   storage.backend          file, sqlite, encrypted
//   storage.path             State file override
//   server.listen            host:port
//   ui.theme                 dark, light, auto
//   ui.show_agent_names      bool
//   ui.sidebar_width         Positive integer
//
// Examples:
//   auraflow config show
//   auraflow config set backend.base_url http://localhost:1234
//   auraflow config set storage.backend sqlite
//   auraflow config set ui.theme light
package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/auraflow/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show":
		return handleConfigShow(args.JSON)

	case "set":
		key := parser.Positional(1)
		value := JoinPositionalArgs(parser, 2)
		if key == "" || value == "" {
			return NewUsageErrorWithExample("arguments", "",
				"usage: config set <key> <value>",
				"auraflow config set backend.base_url http://localhost:1234")
		}
		return handleConfigSet(key, value)

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config.path", map[string]string{"path": path}).Print()
		}
		fmt.Println(path)
		return nil

	case "init", "reset":
		cfg := config.Default()
		if err := config.Save(cfg); err != nil {
			return NewCommandError("config", "init", "could not write config", err)
		}
		path, _ := config.ConfigPath()
		fmt.Printf("%s %s\n", SuccessStyle.Render("wrote"), ValueStyle.Render(path))
		return nil

	case "validate":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("configuration is valid"))
		return nil

	default:
		return NewUsageError("subcommand", parser.Subcommand(),
			"expected show, set, path, init, or validate")
	}
}

func handleConfigShow(jsonMode bool) error {
	cfg := config.Global()

	if jsonMode {
		return NewJSONResponse("config.show", cfg).Print()
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return NewCommandError("config", "show", "could not render config", err)
	}
	fmt.Print(buf.String())
	return nil
}

// handleConfigSet applies one key change, validates the whole config,
// and persists it.
func handleConfigSet(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set", "could not write config", err)
	}

	config.SetGlobal(cfg)
	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("set"),
		ValueStyle.Render(key), HighlightStyle.Render(value))
	return nil
}

// applyConfigKey maps dotted key names onto config fields.
func applyConfigKey(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "backend.base_url":
		cfg.Backend.BaseURL = value
	case "backend.discover":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.Backend.Discover = b
	case "chat.report_style":
		cfg.Chat.ReportStyle = value
	case "chat.max_plan_iterations":
		n, err := ParseIntWithValidation(value, key)
		if err != nil {
			return NewUsageError(key, value, err.Error())
		}
		cfg.Chat.MaxPlanIterations = n
	case "chat.max_step_num":
		n, err := ParseIntWithValidation(value, key)
		if err != nil {
			return NewUsageError(key, value, err.Error())
		}
		cfg.Chat.MaxStepNum = n
	case "chat.auto_accepted_plan":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.Chat.AutoAcceptedPlan = b
	case "chat.enable_deep_thinking":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.Chat.EnableDeepThink = b
	case "replay.enabled":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.Replay.Enabled = b
	case "replay.fast_forward":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.Replay.FastForward = b
	case "replay.transcript":
		cfg.Replay.Transcript = value
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.path":
		cfg.Storage.Path = value
	case "server.listen":
		cfg.Server.Listen = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.show_agent_names":
		b, err := ParseBoolString(value)
		if err != nil {
			return NewUsageError(key, value, "expected a boolean")
		}
		cfg.UI.ShowAgentNames = b
	case "ui.sidebar_width":
		n, err := ParseIntWithValidation(value, key)
		if err != nil {
			return NewUsageError(key, value, err.Error())
		}
		cfg.UI.SidebarWidth = n
	default:
		return NewUsageError("key", key, "unknown configuration key")
	}
	return nil
}
