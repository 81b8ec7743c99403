// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/auraflow/internal/util"
)

// AES-256-GCM with a PBKDF2-SHA-256 derived key. A fresh salt and nonce
// are written with every save; file layout is salt || nonce || ciphertext.
const (
	saltSize         = 32
	nonceSize        = 12
	keySize          = 32
	pbkdf2Iterations = 600000
)

// ErrDecryptFailed indicates a wrong passphrase or a tampered state file.
var ErrDecryptFailed = errors.New("failed to decrypt state file: wrong passphrase or corrupted data")

// EncryptedPersistence wraps the JSON state in authenticated encryption
// at rest. Everything else behaves like FilePersistence.
type EncryptedPersistence struct {
	Path       string
	passphrase []byte
}

// NewEncryptedPersistence creates an encrypted file-backed persistence.
func NewEncryptedPersistence(path, passphrase string) *EncryptedPersistence {
	return &EncryptedPersistence{Path: path, passphrase: []byte(passphrase)}
}

// Load reads and decrypts the state file. A missing file is an empty
// state.
func (e *EncryptedPersistence) Load() (State, error) {
	raw, err := os.ReadFile(e.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(raw) < saltSize+nonceSize {
		return State{}, ErrDecryptFailed
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceSize]
	ciphertext := raw[saltSize+nonceSize:]

	aead, err := e.aead(salt)
	if err != nil {
		return State{}, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return State{}, ErrDecryptFailed
	}

	var state State
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return state, nil
}

// Save encrypts and writes the full state atomically.
func (e *EncryptedPersistence) Save(state State) error {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)

	if err := util.AtomicWriteFileWithDir(e.Path, out, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// aead builds the AES-GCM cipher for the given salt.
func (e *EncryptedPersistence) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// SECURITY: Zero key material to limit exposure in crash dumps.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
