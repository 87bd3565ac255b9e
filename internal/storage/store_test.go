package storage

import (
	"bytes"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	key, err := store.Save("classroom_media", "photo.JPG", data)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(key, "classroom_media/") {
		t.Errorf("key %q missing profile prefix", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key %q missing lowercased extension", key)
	}

	got, err := store.Open(key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Open() = %v, want %v", got, data)
	}
}

func TestSaveIgnoresHostileFilename(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := store.Save("avatar_photo", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(key, "..") {
		t.Errorf("key %q contains path traversal", key)
	}
	if strings.Contains(key, "passwd") {
		t.Errorf("key %q derived from hostile filename", key)
	}
}

func TestOpenRejectsTraversalKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range []string{"", "../secret", "/abs/path", "a/../../b"} {
		if _, err := store.Open(key); err == nil {
			t.Errorf("Open(%q) expected error", key)
		}
	}
}

func TestDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := store.Save("organization_logo", "logo.png", []byte("png"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Open(key); err == nil {
		t.Error("Open() after Delete() expected error")
	}

	// Deleting again is not an error
	if err := store.Delete(key); err != nil {
		t.Errorf("Delete() of missing object error = %v", err)
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "simple", filename: "a.png", want: ".png"},
		{name: "uppercased", filename: "A.JPEG", want: ".jpeg"},
		{name: "no extension", filename: "README", want: ""},
		{name: "hostile characters", filename: "x.p~g", want: ""},
		{name: "overlong", filename: "x.aaaaaaaaaaaa", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeExt(tt.filename); got != tt.want {
				t.Errorf("safeExt(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
