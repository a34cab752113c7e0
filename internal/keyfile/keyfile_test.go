package keyfile

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateKey(t *testing.T) (string, ssh.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(block)), sshPub
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "fleet-123-i-abc.pem", FileName("fleet-123", "i-abc"))
	assert.Equal(t, "fleet-123-i-abc.pem", Path(".", "fleet-123", "i-abc"))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	secret, _ := generateKey(t)

	path, err := Write(dir, "fleet-123", "i-abc", secret)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fleet-123-i-abc.pem"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, secret, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteTightensExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName("fleet-123", "i-abc"))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale key material ", 20)), 0644))
	require.NoError(t, os.Chmod(path, 0755))

	_, err := Write(dir, "fleet-123", "i-abc", "fresh")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteMissingDirectory(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "absent"), "fleet-123", "i-abc", "secret")
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	secret, pub := generateKey(t)

	fp, err := Fingerprint(secret)
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(pub), fp)

	_, err = Fingerprint("not a key")
	assert.Error(t, err)
}
