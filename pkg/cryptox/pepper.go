package cryptox

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Argon2id parameters, per the OWASP second recommended configuration.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// The pepper is a site-wide secret mixed into every password hash. It
// lives in a file outside the database so a dump of the users table
// alone is not crackable offline.
var (
	pepper     string
	pepperFile string
)

// SetPepperPath configures where the pepper file lives. Call before the
// first hash or verify.
func SetPepperPath(file string) {
	pepperFile = file
}

// GetPepper returns the pepper, loading or creating the file on first
// use. Failure to obtain a pepper is unrecoverable: hashing without one
// would silently produce incompatible hashes.
func GetPepper() string {
	if pepper != "" {
		return pepper
	}

	loaded, err := loadOrCreatePepper()
	if err != nil {
		slog.Error("pepper unavailable", "err", err, "path", pepperFile)
		os.Exit(1)
	}
	pepper = loaded
	return pepper
}

func loadOrCreatePepper() (string, error) {
	pepperFile = filepath.Clean(pepperFile)
	if err := os.MkdirAll(filepath.Dir(pepperFile), 0750); err != nil {
		return "", err
	}

	if data, err := os.ReadFile(pepperFile); err == nil {
		return string(data), nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	fresh, err := GenerateToken(keyLength)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(pepperFile, []byte(fresh), 0600); err != nil {
		return "", err
	}
	return fresh, nil
}
