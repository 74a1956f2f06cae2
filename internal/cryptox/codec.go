// Package cryptox provides the field-level encryption codec used by the
// per-user memory store. Values are encrypted with AES-256-GCM under a
// single symmetric key persisted next to the data files.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"github.com/dmitrijs2005/eldermate/internal/logging"
)

const keyBytes = 32

// Codec encrypts and decrypts individual string values. When no key could be
// loaded or generated, both operations degrade to the identity function so
// callers keep working with plaintext; Enabled reports that state truthfully.
type Codec struct {
	aead cipher.AEAD
	log  logging.Logger
}

// NewCodec loads the key from keyPath, generating and persisting a fresh one
// (mode 0600) on first use. Key failures are logged and leave the codec in
// pass-through mode.
func NewCodec(keyPath string, log logging.Logger) *Codec {
	c := &Codec{log: log}

	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		log.Error(context.Background(), "encryption key unavailable, storing values as plaintext",
			"path", keyPath, "error", err)
		return c
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		log.Error(context.Background(), "cannot initialize cipher", "error", err)
		return c
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		log.Error(context.Background(), "cannot initialize AES-GCM", "error", err)
		return c
	}

	c.aead = aead
	return c
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keyBytes {
			return nil, fmt.Errorf("key file %s: unexpected size %d", path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	key = common.GenerateRandByteArray(keyBytes)
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// Enabled reports whether a key is available and values are actually
// encrypted at rest.
func (c *Codec) Enabled() bool {
	return c.aead != nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext). Empty
// input and pass-through mode return the input unchanged.
func (c *Codec) Encrypt(plaintext string) string {
	if c.aead == nil || plaintext == "" {
		return plaintext
	}

	nonce := common.GenerateRandByteArray(c.aead.NonceSize())
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed)
}

// Decrypt reverses Encrypt. Corrupted or foreign input is logged and
// returned unchanged rather than failing the caller.
func (c *Codec) Decrypt(ciphertext string) string {
	if c.aead == nil || ciphertext == "" {
		return ciphertext
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) <= c.aead.NonceSize() {
		c.log.Warn(context.Background(), "value is not a valid ciphertext, returning as is")
		return ciphertext
	}

	ns := c.aead.NonceSize()
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		c.log.Warn(context.Background(), "cannot decrypt value, returning as is", "error", err)
		return ciphertext
	}

	return string(plaintext)
}
