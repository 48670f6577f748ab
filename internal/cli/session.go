package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Session is the CLI state kept between runs: the API tokens plus where the
// player last played and which difficulty they picked.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Email        string `json:"email,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	APIBaseURL   string `json:"api_base_url,omitempty"`

	Mode       Mode   `json:"mode,omitempty"`
	LocalPath  string `json:"local_path,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

// Offline reports whether the last game was played against a local file.
func (s Session) Offline() bool {
	return s.Mode == ModeLocal && s.LocalPath != ""
}

var ErrNotLoggedIn = errors.New("not logged in, run `bizwars login` first")

// BaseDir is ~/.bizwars, created on first use.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".bizwars")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func sessionPath() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// ReadSession returns the stored state, or a zero Session when nothing has
// been saved yet.
func ReadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", path, err)
	}
	return s, nil
}

// LoadSession returns a session usable against apiBase. Tokens issued for a
// different server are refused rather than sent along.
func LoadSession(apiBase string) (Session, error) {
	s, err := ReadSession()
	if err != nil {
		return Session{}, err
	}
	if !s.LoggedIn() {
		return Session{}, ErrNotLoggedIn
	}
	want := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if s.APIBaseURL != "" && want != "" && s.APIBaseURL != want {
		return Session{}, fmt.Errorf("logged in to %s, not %s; run `bizwars login --api %s`", s.APIBaseURL, want, want)
	}
	return s, nil
}

// SaveSession writes s through a temp file so a crash never leaves a
// truncated session behind.
func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	s.APIBaseURL = strings.TrimRight(strings.TrimSpace(s.APIBaseURL), "/")
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// UpdateSession applies fn to the stored state and saves the result.
func UpdateSession(fn func(*Session)) error {
	s, err := ReadSession()
	if err != nil {
		return err
	}
	fn(&s)
	return SaveSession(s)
}

// ClearSession drops the tokens and keeps the player's preferences.
func ClearSession() error {
	s, err := ReadSession()
	if err != nil {
		return err
	}
	prefs := Session{Mode: s.Mode, LocalPath: s.LocalPath, Difficulty: s.Difficulty}
	if prefs == (Session{}) {
		path, err := sessionPath()
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return SaveSession(prefs)
}
