package repodir

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
)

const keySize = 32 // AES-256

// Keychain seals repository secrets at rest with AES-256-GCM under a key
// kept in a file next to the profile store.
type Keychain struct {
	gcm cipher.AEAD
}

// LoadKeychain reads the key file, generating a fresh key on first use.
func LoadKeychain(path string) (*Keychain, error) {
	key, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		key = make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, key, 0600); err != nil {
			return nil, fmt.Errorf("failed to write key file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(key) != keySize {
		// Tolerate hand-provided key material of any length.
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Keychain{gcm: gcm}, nil
}

// Seal encrypts a secret for storage: base64(nonce | ciphertext).
func (k *Keychain) Seal(plain string) (string, error) {
	nonce := make([]byte, k.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := k.gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (k *Keychain) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("corrupt stored secret: %w", err)
	}
	ns := k.gcm.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("corrupt stored secret: too short")
	}
	plain, err := k.gcm.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt stored secret: invalid key or tampered data")
	}
	return string(plain), nil
}
