package tunnel

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"

	rferr "rfchat/internal/errors"
)

// TestBuildAuthMethods_ExplicitKey verifies that a key file is loaded.
func TestBuildAuthMethods_ExplicitKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_test")
	writeTestKey(t, keyPath, nil)

	methods, err := BuildAuthMethods(&SSHConfig{KeyPath: keyPath})
	if err != nil {
		t.Fatalf("BuildAuthMethods: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(methods))
	}
}

// TestBuildAuthMethods_EncryptedKey verifies the passphrase prompt path.
func TestBuildAuthMethods_EncryptedKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_locked")
	writeTestKey(t, keyPath, []byte("hunter2"))

	prompts := 0
	stubSecret(t, func(string) ([]byte, error) {
		prompts++
		return []byte("hunter2"), nil
	})

	if _, err := BuildAuthMethods(&SSHConfig{KeyPath: keyPath}); err != nil {
		t.Fatalf("BuildAuthMethods: %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompted %d times, want 1", prompts)
	}
}

// TestBuildAuthMethods_Password verifies the password prompt is used.
func TestBuildAuthMethods_Password(t *testing.T) {
	stubSecret(t, func(string) ([]byte, error) { return []byte("pw"), nil })

	methods, err := BuildAuthMethods(&SSHConfig{PromptPass: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(methods) != 1 {
		t.Errorf("got %d methods, want 1", len(methods))
	}

	stubSecret(t, func(string) ([]byte, error) { return nil, errors.New("no tty") })
	if _, err := BuildAuthMethods(&SSHConfig{PromptPass: true}); err == nil {
		t.Fatal("expected prompt failure to surface")
	}
}

// TestBuildAuthMethods_MissingKey verifies a clear error.
func TestBuildAuthMethods_MissingKey(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := BuildAuthMethods(&SSHConfig{KeyPath: "/nonexistent/key"})
	if err == nil {
		t.Fatal("expected error for missing key")
	}
}

// TestBuildAuthMethods_NothingAvailable verifies ErrAuthFailed when no
// credentials exist anywhere.
func TestBuildAuthMethods_NothingAvailable(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())

	_, err := BuildAuthMethods(&SSHConfig{})
	if !errors.Is(err, rferr.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}

// TestHostKeyCallback_Insecure verifies any key is accepted when
// StrictHostKey is false.
func TestHostKeyCallback_Insecure(t *testing.T) {
	cb, err := hostKeyCallback(&SSHConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if cb == nil {
		t.Fatal("callback should not be nil")
	}
}

// TestHostKeyCallback_StrictMissingFile verifies a missing known_hosts
// file is an error in strict mode.
func TestHostKeyCallback_StrictMissingFile(t *testing.T) {
	cfg := &SSHConfig{
		StrictHostKey: true,
		KnownHosts:    filepath.Join(t.TempDir(), "known_hosts"),
	}
	if _, err := hostKeyCallback(cfg); err == nil {
		t.Fatal("expected error for missing known_hosts")
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func stubSecret(t *testing.T, fn func(string) ([]byte, error)) {
	t.Helper()
	prev := readSecret
	readSecret = fn
	t.Cleanup(func() { readSecret = prev })
}

// writeTestKey generates an ed25519 key in OpenSSH format, optionally
// encrypted with passphrase.
func writeTestKey(t *testing.T, path string, passphrase []byte) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	var block *pem.Block
	if passphrase == nil {
		block, err = ssh.MarshalPrivateKey(priv, "rfchat-test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "rfchat-test", passphrase)
	}
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
}
