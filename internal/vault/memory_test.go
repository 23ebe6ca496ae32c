package vault

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryVault_PutAndGetObject(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	tests := []struct {
		name    string
		key     string
		content string
		wantErr bool
	}{
		{
			name:    "store and retrieve object",
			key:     "backup-1.csv",
			content: "id,tipo_registro\n1,Notas\n",
		},
		{
			name:    "store empty object",
			key:     "empty",
			content: "",
		},
		{
			name:    "store large object",
			key:     "large",
			content: strings.Repeat("x", 10000),
		},
		{
			name:    "reject key with separator",
			key:     "../escape",
			content: "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.content)
			err := vault.PutObject(tt.key, r, int64(len(tt.content)))
			if (err != nil) != tt.wantErr {
				t.Errorf("PutObject() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				return
			}

			var buf bytes.Buffer
			if err := vault.GetObject(tt.key, &buf); err != nil {
				t.Errorf("GetObject() unexpected error: %v", err)
				return
			}

			if got := buf.String(); got != tt.content {
				t.Errorf("GetObject() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryVault_PutObjectReplaces(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	for _, content := range []string{"first", "second"} {
		if err := vault.PutObject("k", strings.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("PutObject(%q) error: %v", content, err)
		}
	}

	var buf bytes.Buffer
	if err := vault.GetObject("k", &buf); err != nil {
		t.Fatalf("GetObject() error: %v", err)
	}
	if buf.String() != "second" {
		t.Errorf("GetObject() = %q, want %q", buf.String(), "second")
	}
}

func TestMemoryVault_GetObjectNotFound(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	var buf bytes.Buffer
	if err := vault.GetObject("missing", &buf); err == nil {
		t.Error("GetObject() expected error for missing key")
	}
}

func TestMemoryVault_PutObjectSizeMismatch(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	err := vault.PutObject("k", strings.NewReader("hello"), 10)
	if err == nil {
		t.Error("PutObject() expected error for size mismatch")
	}
}

func TestMemoryVault_ListObjects(t *testing.T) {
	vault := NewMemoryVault("test-vault")
	for _, k := range []string{"backup-2.csv", "other", "backup-1.csv.age"} {
		if err := vault.PutObject(k, strings.NewReader(""), 0); err != nil {
			t.Fatalf("PutObject(%q) error: %v", k, err)
		}
	}

	got, err := vault.ListObjects("backup-")
	if err != nil {
		t.Fatalf("ListObjects() error: %v", err)
	}
	if diff := cmp.Diff([]string{"backup-1.csv.age", "backup-2.csv"}, got); diff != "" {
		t.Errorf("ListObjects() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryVault_ValidateSetup(t *testing.T) {
	vault := NewMemoryVault("test-vault")
	if err := vault.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}
