package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieStore persists the session and CSRF cookies between invocations,
// keyed by API base URL. The jar only exposes name and value, so cookies are
// restored with path "/".
type cookieStore struct {
	path string
}

func newCookieStore(path string) *cookieStore {
	return &cookieStore{path: path}
}

func (s *cookieStore) read() (map[string][]storedCookie, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]storedCookie{}, nil
	}
	if err != nil {
		return nil, err
	}
	all := map[string][]storedCookie{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return all, nil
}

// Load puts the cookies saved for base into jar.
func (s *cookieStore) Load(jar http.CookieJar, base *url.URL) error {
	all, err := s.read()
	if err != nil {
		return err
	}
	saved := all[base.String()]
	if len(saved) == 0 {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return nil
}

// Save records what jar currently holds for base. Other servers' entries are
// kept.
func (s *cookieStore) Save(jar http.CookieJar, base *url.URL) error {
	all, err := s.read()
	if err != nil {
		all = map[string][]storedCookie{}
	}

	var current []storedCookie
	for _, c := range jar.Cookies(base) {
		current = append(current, storedCookie{Name: c.Name, Value: c.Value})
	}
	key := base.String()
	if len(current) == 0 {
		delete(all, key)
	} else {
		all[key] = current
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
