// Package credential stores secrets such as API keys in the OS keyring.
package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "email-concierge"

// Keys under which secrets are stored
const (
	OpenAIKey    = "openai_api_key"
	GeminiKey    = "gemini_api_key"
	IMAPPassword = "imap_password"
)

// Keys lists every key the concierge reads from the keyring
var Keys = []string{OpenAIKey, GeminiKey, IMAPPassword}

// open is swapped in tests
var open = openKeyring

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/email-concierge/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("email-concierge-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// ValidateKey rejects keys the concierge never reads
func ValidateKey(key string) error {
	for _, k := range Keys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown credential %q (want one of %s)", key, strings.Join(Keys, ", "))
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential under one of Keys.
func Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("credential %q is empty", key)
	}

	ring, err := open()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// SetFromReader stores the first line read from r under key. Trailing line
// breaks are dropped; other whitespace is part of the secret.
func SetFromReader(key string, r io.Reader) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading credential %q: %w", key, err)
	}
	return Set(key, strings.TrimRight(line, "\r\n"))
}

// Delete removes a credential. A missing entry is not an error.
func Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	ring, err := open()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Resolve returns value when it is set, otherwise the keyring entry for key.
func Resolve(value, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	secret, err := Get(key)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("credential %q is empty", key)
	}
	return secret, nil
}
