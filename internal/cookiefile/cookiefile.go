// Package cookiefile persists the API session cookies between runs, the
// terminal stand-in for a browser cookie store.
package cookiefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type record struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
}

// Load reads cookies from path. A missing file is not an error. Cookies
// already expired are skipped.
func Load(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse cookie file: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(recs))
	for _, r := range recs {
		if r.Name == "" || (!r.Expires.IsZero() && r.Expires.Before(now)) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     r.Name,
			Value:    r.Value,
			Path:     r.Path,
			Expires:  r.Expires,
			HttpOnly: r.HttpOnly,
			Secure:   r.Secure,
		})
	}
	return cookies, nil
}

// Save writes cookies to path with owner-only permissions. An empty list
// removes the file.
func Save(path string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cookie file: %w", err)
		}
		return nil
	}

	recs := make([]record, 0, len(cookies))
	for _, c := range cookies {
		recs = append(recs, record{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	return nil
}
