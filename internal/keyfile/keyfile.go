package keyfile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// Mode is owner read/write only.
const Mode os.FileMode = 0600

const Extension = ".pem"

// FileName is derived from the fleet and instance ids alone.
func FileName(fleetID, instanceID string) string {
	return fleetID + "-" + instanceID + Extension
}

// Path joins dir and the derived file name. The result stays relative when dir is ".".
func Path(dir, fleetID, instanceID string) string {
	return filepath.Join(dir, FileName(fleetID, instanceID))
}

// Write stores secret verbatim, overwriting any existing file, and then
// restricts it to Mode. The chmod runs after the write so an older file with
// wider permissions, or a permissive umask, still ends up at exactly 0600.
func Write(dir, fleetID, instanceID, secret string) (string, error) {
	path := Path(dir, fleetID, instanceID)

	if err := os.WriteFile(path, []byte(secret), Mode); err != nil {
		return "", fmt.Errorf("failed to write key file %s: %w", path, err)
	}

	if err := os.Chmod(path, Mode); err != nil {
		return "", fmt.Errorf("failed to restrict permissions on %s: %w", path, err)
	}

	return path, nil
}

// Fingerprint returns the SHA256 fingerprint of the public half of an
// unencrypted private key.
func Fingerprint(secret string) (string, error) {
	signer, err := ssh.ParsePrivateKey([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("reading private key failed: %w", err)
	}
	return ssh.FingerprintSHA256(signer.PublicKey()), nil
}
