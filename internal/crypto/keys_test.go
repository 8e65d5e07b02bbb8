package crypto_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	lcrypto "layerdb/internal/crypto"
)

func TestGenerateKey(t *testing.T) {
	a, err := lcrypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	b, err := lcrypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != lcrypto.KeySize {
		t.Fatalf("key length = %d, want %d", len(a), lcrypto.KeySize)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two generated keys are identical")
	}
}

func TestKeyFileRoundTrip(t *testing.T) {
	key, err := lcrypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "keys", "store.key")
	if err := lcrypto.WriteKeyFile(path, key); err != nil {
		t.Fatalf("WriteKeyFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("key file perm = %o, want 600", perm)
	}

	got, err := lcrypto.ReadKeyFile(path)
	if err != nil {
		t.Fatalf("ReadKeyFile: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("read key differs from written key")
	}
}

func TestWriteKeyFileRefusesOverwrite(t *testing.T) {
	key, _ := lcrypto.GenerateKey()
	path := filepath.Join(t.TempDir(), "store.key")
	if err := lcrypto.WriteKeyFile(path, key); err != nil {
		t.Fatal(err)
	}
	if err := lcrypto.WriteKeyFile(path, key); err == nil {
		t.Fatal("second WriteKeyFile should fail")
	}
}

func TestWriteKeyFileRejectsShortKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.key")
	if err := lcrypto.WriteKeyFile(path, []byte("short")); !errors.Is(err, lcrypto.ErrKeySize) {
		t.Fatalf("error = %v, want ErrKeySize", err)
	}
}

func TestReadKeyFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := lcrypto.ReadKeyFile(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}

	notHex := filepath.Join(dir, "nothex")
	os.WriteFile(notHex, []byte("zz not hex"), 0600)
	if _, err := lcrypto.ReadKeyFile(notHex); err == nil {
		t.Error("non-hex key file should fail")
	}

	short := filepath.Join(dir, "short")
	os.WriteFile(short, []byte("abcd\n"), 0600)
	if _, err := lcrypto.ReadKeyFile(short); !errors.Is(err, lcrypto.ErrKeySize) {
		t.Errorf("short key error = %v, want ErrKeySize", err)
	}
}
