package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var errNotLoggedIn = errors.New("not logged in; run adminctl login")

// savedToken is the on-disk login.  Tokens are only sent back to Server.
type savedToken struct {
	Server       string `json:"server"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// loadToken reads path.  A missing file is an empty login.
func loadToken(path string) (savedToken, error) {
	var t savedToken
	bs, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read token file: %w", err)
	}
	if err := json.Unmarshal(bs, &t); err != nil {
		return savedToken{}, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return t, nil
}

// saveToken writes t readable by the owner only.
func saveToken(path string, t savedToken) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	bs, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, bs, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func removeToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
