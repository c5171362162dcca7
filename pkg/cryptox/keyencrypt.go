package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Signing keys are sealed with AES-256-GCM before they touch the
// database. The master key material comes from a file, the
// AUTH_MASTER_KEY environment variable, or as a last resort a random
// in-process key that will not survive a restart.

var (
	masterOnce sync.Once
	master     []byte
	masterErr  error
	masterPath string
)

// SetMasterKeyPath points the master key loader at a file. Call before
// the first Encrypt/DecryptPrivateKey.
func SetMasterKeyPath(path string) {
	masterPath = path
}

func masterKey() ([]byte, error) {
	masterOnce.Do(func() {
		var material []byte
		switch {
		case masterPath != "":
			material, masterErr = os.ReadFile(masterPath)
			if masterErr != nil {
				masterErr = fmt.Errorf("cryptox: read master key file: %w", masterErr)
				return
			}
		case os.Getenv("AUTH_MASTER_KEY") != "":
			material = []byte(os.Getenv("AUTH_MASTER_KEY"))
		default:
			material = make([]byte, 32)
			if _, masterErr = rand.Read(material); masterErr != nil {
				return
			}
		}

		// Whatever the source, stretch it into exactly 32 bytes.
		sum := sha256.Sum256(material)
		master = sum[:]
	})
	return master, masterErr
}

func sealCipher() (cipher.AEAD, error) {
	key, err := masterKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptPrivateKey seals PEM-encoded key material. The nonce is
// prepended to the ciphertext.
func EncryptPrivateKey(pemData []byte) ([]byte, error) {
	gcm, err := sealCipher()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptox: nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, pemData, nil), nil
}

// DecryptPrivateKey opens data sealed by EncryptPrivateKey. Tampered or
// foreign ciphertext fails the GCM tag check.
func DecryptPrivateKey(sealed []byte) ([]byte, error) {
	gcm, err := sealCipher()
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("cryptox: sealed key too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: unseal key: %w", err)
	}
	return plain, nil
}

// ResetMasterKeyForTesting clears the cached master key so tests can
// switch sources.
func ResetMasterKeyForTesting() {
	masterOnce = sync.Once{}
	master = nil
	masterErr = nil
}
