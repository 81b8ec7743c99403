// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds conversation metadata and the active conversation
// selection, persisted through an injected backend after every mutation.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/auraflow/internal/util"
)

// ErrNotFound is returned when an operation names an unknown
// conversation id.
var ErrNotFound = errors.New("conversation not found")

// ConversationMeta describes one conversation. Timestamps are
// milliseconds since the Unix epoch.
type ConversationMeta struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// State is the full persisted shape: the conversation list ordered
// most-recent-created first, plus the current selection. If CurrentID is
// set, a matching entry exists in Conversations.
type State struct {
	Conversations []ConversationMeta `json:"conversations"`
	CurrentID     string             `json:"currentId,omitempty"`
}

// Persistence loads and saves the full state. Implementations must treat
// a missing backing store as an empty state, not an error.
type Persistence interface {
	Load() (State, error)
	Save(State) error
}

// Store is the process-wide conversation registry. All mutations are
// applied read-modify-persist under one lock; the persisted copy is
// current the moment a mutating call returns.
type Store struct {
	mu      sync.Mutex
	state   State
	persist Persistence
}

// New creates a Store over the given persistence backend, loading any
// existing state. A dangling CurrentID in the loaded state is cleared.
func New(p Persistence) (*Store, error) {
	state, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state.CurrentID != "" && findByID(state.Conversations, state.CurrentID) < 0 {
		state.CurrentID = ""
	}
	return &Store{state: state, persist: p}, nil
}

// Create adds a conversation with the given title, prepends it, and
// makes it current. Titles are whitespace-collapsed and NFC-normalized.
func (s *Store) Create(title string) (ConversationMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	meta := ConversationMeta{
		ID:        uuid.NewString(),
		Title:     util.NormalizeTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.state.Conversations = append([]ConversationMeta{meta}, s.state.Conversations...)
	s.state.CurrentID = meta.ID

	if err := s.persist.Save(s.state); err != nil {
		return ConversationMeta{}, err
	}
	return meta, nil
}

// Select makes the named conversation current and bumps its UpdatedAt.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findByID(s.state.Conversations, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.state.Conversations[i].UpdatedAt = time.Now().UnixMilli()
	s.state.CurrentID = id
	return s.persist.Save(s.state)
}

// Rename changes a conversation's title and bumps its UpdatedAt.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findByID(s.state.Conversations, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.state.Conversations[i].Title = util.NormalizeTitle(title)
	s.state.Conversations[i].UpdatedAt = time.Now().UnixMilli()
	return s.persist.Save(s.state)
}

// Delete removes a conversation. Deleting the current conversation moves
// the selection to the new first element, or clears it when the list
// becomes empty.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findByID(s.state.Conversations, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.state.Conversations = append(s.state.Conversations[:i], s.state.Conversations[i+1:]...)

	if s.state.CurrentID == id {
		if len(s.state.Conversations) > 0 {
			s.state.CurrentID = s.state.Conversations[0].ID
		} else {
			s.state.CurrentID = ""
		}
	}
	return s.persist.Save(s.state)
}

// List returns a copy of the conversation list, most recent first.
func (s *Store) List() []ConversationMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ConversationMeta, len(s.state.Conversations))
	copy(out, s.state.Conversations)
	return out
}

// Current returns the selected conversation, if any.
func (s *Store) Current() (ConversationMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentID == "" {
		return ConversationMeta{}, false
	}
	i := findByID(s.state.Conversations, s.state.CurrentID)
	if i < 0 {
		return ConversationMeta{}, false
	}
	return s.state.Conversations[i], true
}

// Get returns the conversation with the given id.
func (s *Store) Get(id string) (ConversationMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findByID(s.state.Conversations, id)
	if i < 0 {
		return ConversationMeta{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.state.Conversations[i], nil
}

func findByID(list []ConversationMeta, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
