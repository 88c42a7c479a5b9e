package cookiefile

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Missing(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %v, want empty", got)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cookies.json")
	in := []*http.Cookie{
		{Name: "SESSION", Value: "abc", Path: "/", HttpOnly: true},
		{Name: "XSRF-TOKEN", Value: "tok", Path: "/"},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d cookies, want 2 (expired dropped)", len(got))
	}
	if got[0].Name != "SESSION" || got[0].Value != "abc" || !got[0].HttpOnly {
		t.Errorf("cookie[0] = %+v", got[0])
	}
	if got[1].Name != "XSRF-TOKEN" || got[1].Value != "tok" {
		t.Errorf("cookie[1] = %+v", got[1])
	}
}

func TestSave_EmptyRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := Save(path, []*http.Cookie{{Name: "a", Value: "b"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := Save(path, nil); err != nil {
		t.Fatalf("Save(nil) error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after empty save: %v", err)
	}
	// Removing twice is fine.
	if err := Save(path, nil); err != nil {
		t.Errorf("second Save(nil) error: %v", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}
