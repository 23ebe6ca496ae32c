package encryption

import (
	"bytes"
	"testing"
)

func TestTestEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup("any-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() did not record that it was called")
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}
}

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "csv backup", input: []byte("id,tipo_registro\n1,Notas\n")},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewTestEncryptor()

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			dec, err := e.Unlock("any")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var decrypted bytes.Buffer
			if err := dec.Decrypt(&encrypted, &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestTestEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()
	if _, err := NewTestEncryptor().Unlock("wrong"); err == nil {
		t.Error("Unlock(\"wrong\") should return error")
	}
}

func TestTestDecryptionContext_InvalidHeader(t *testing.T) {
	t.Parallel()

	ctx := &TestDecryptionContext{}
	var buf bytes.Buffer
	if err := ctx.Decrypt(bytes.NewReader([]byte("NOTVALIDxxxx")), &buf); err == nil {
		t.Error("Decrypt() with invalid header should return error")
	}
	if err := ctx.Decrypt(bytes.NewReader([]byte("CP")), &buf); err == nil {
		t.Error("Decrypt() with truncated input should return error")
	}
}
