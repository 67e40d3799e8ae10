package backup

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"eventmeet/internal/model"
)

// testWorkFactor keeps scrypt fast in tests.
const testWorkFactor = 10

func encryptBytes(t *testing.T, plaintext []byte, passphrase string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := encrypt(&buf, passphrase, testWorkFactor)
	if err != nil {
		t.Fatalf("encrypt() error = %v", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 and then some pages")

	ciphertext := encryptBytes(t, plaintext, "correct horse")
	if bytes.Contains(ciphertext, []byte("SQLite format 3")) {
		t.Fatal("ciphertext contains plaintext")
	}

	r, err := decrypt(bytes.NewReader(ciphertext), "correct horse")
	if err != nil {
		t.Fatalf("decrypt() error = %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("decrypt() = %q, want %q", got, plaintext)
	}
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	ciphertext := encryptBytes(t, []byte("secret"), "correct horse")

	_, err := decrypt(bytes.NewReader(ciphertext), "battery staple")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("decrypt() error = %v, want ErrValidation", err)
	}
}

func TestDecrypt_NotAnAgeFile(t *testing.T) {
	_, err := decrypt(bytes.NewReader([]byte("plain text, not encrypted")), "pass")
	if err == nil {
		t.Fatal("decrypt() expected error for garbage input")
	}
	if errors.Is(err, model.ErrValidation) {
		t.Errorf("decrypt() error = %v, want a format error rather than a passphrase error", err)
	}
}
