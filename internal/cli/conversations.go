// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations.go - Conversation management command for the auraflow CLI.
//
// Command: conversations [subcommand]
// Short:   Manage saved conversations
// Aliases: conversation, conv
//
// Subcommands:
//   list (default)      List saved conversations
//   create [title]      Create and select a conversation
//   select <id>         Select a conversation
//   rename <id> <title> Rename a conversation
//   delete <id>         Delete a conversation (requires --confirm)
//   current             Show the selected conversation
//
// Examples:
//   auraflow conversations
//   auraflow conversations create Rust questions
//   auraflow conversations rename 3f2a "Streaming bug hunt"
//   auraflow conversations delete 3f2a --confirm
//   auraflow conversations list --json
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/auraflow/internal/config"
	"github.com/jeranaias/auraflow/internal/store"
)

// HandleConversations handles the "conversations" command.
func HandleConversations(args Args) error {
	parser := NewArgParser(args.Raw)

	cfg := config.Global()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	switch parser.Subcommand() {
	case "", "list", "ls", "l":
		return handleConversationsList(st, args.JSON)

	case "create", "new":
		title := JoinPositionalArgs(parser, 1)
		if title == "" {
			title = "New conversation"
		}
		meta, err := st.Create(title)
		if err != nil {
			return NewCommandError("conversations", "create", "could not save", err)
		}
		if args.JSON {
			return NewJSONResponse("conversations.create", meta).Print()
		}
		fmt.Printf("%s %s (%s)\n", SuccessStyle.Render("created"),
			ValueStyle.Render(meta.Title), DimStyle.Render(shortID(meta.ID)))
		return nil

	case "select", "switch":
		prefix := parser.Positional(1)
		if prefix == "" {
			return NewUsageError("conversation id", "", "usage: conversations select <id>")
		}
		id, err := resolveConversationID(st, prefix)
		if err != nil {
			return err
		}
		if err := st.Select(id); err != nil {
			return err
		}
		meta, _ := st.Get(id)
		fmt.Printf("%s %s\n", SuccessStyle.Render("selected"), ValueStyle.Render(meta.Title))
		return nil

	case "rename":
		prefix := parser.Positional(1)
		title := JoinPositionalArgs(parser, 2)
		if prefix == "" || title == "" {
			return NewUsageError("arguments", "",
				"usage: conversations rename <id> <title>")
		}
		id, err := resolveConversationID(st, prefix)
		if err != nil {
			return err
		}
		if err := st.Rename(id, title); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", SuccessStyle.Render("renamed to"), ValueStyle.Render(title))
		return nil

	case "delete", "rm":
		prefix := parser.Positional(1)
		if prefix == "" {
			return NewUsageError("conversation id", "", "usage: conversations delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return NewUsageErrorWithExample("confirmation", "", "deletion requires --confirm",
				"auraflow conversations delete "+prefix+" --confirm")
		}
		id, err := resolveConversationID(st, prefix)
		if err != nil {
			return err
		}
		meta, _ := st.Get(id)
		if err := st.Delete(id); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", WarningStyle.Render("deleted"), ValueStyle.Render(meta.Title))
		return nil

	case "current", "show":
		meta, ok := st.Current()
		if !ok {
			if args.JSON {
				return NewJSONResponse("conversations.current", nil).Print()
			}
			fmt.Println(DimStyle.Render("no conversation selected"))
			return nil
		}
		if args.JSON {
			return NewJSONResponse("conversations.current", meta).Print()
		}
		fmt.Printf("%s %s\n", RenderLabel("ID"), meta.ID)
		fmt.Printf("%s %s\n", RenderLabel("Title"), meta.Title)
		fmt.Printf("%s %s\n", RenderLabel("Created"), formatTimestamp(meta.CreatedAt))
		fmt.Printf("%s %s\n", RenderLabel("Updated"), formatTimestamp(meta.UpdatedAt))
		return nil

	default:
		return NewUsageError("subcommand", parser.Subcommand(),
			"expected list, create, select, rename, delete, or current")
	}
}

func handleConversationsList(st *store.Store, jsonMode bool) error {
	list := st.List()

	if jsonMode {
		current, _ := st.Current()
		return NewJSONResponse("conversations.list", map[string]interface{}{
			"conversations": list,
			"current_id":    current.ID,
		}).Print()
	}

	printConversationList(st)
	return nil
}

// resolveConversationID matches a user-supplied ID prefix against the
// stored conversations. Exact matches win; a unique prefix match is
// accepted; anything else is an error.
func resolveConversationID(st *store.Store, prefix string) (string, error) {
	list := st.List()

	var matches []string
	for _, meta := range list {
		if meta.ID == prefix {
			return meta.ID, nil
		}
		if strings.HasPrefix(meta.ID, prefix) {
			matches = append(matches, meta.ID)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", NewNotFoundError("conversation", prefix)
	default:
		return "", NewUsageError("conversation id", prefix,
			fmt.Sprintf("prefix matches %d conversations, be more specific", len(matches)))
	}
}
