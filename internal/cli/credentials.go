package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TokenKey is the fixed key the bearer token is stored under.
const TokenKey = "mindmesh_token"

// Credentials is the on-disk token store of the terminal client.
type Credentials struct {
	path string
}

func NewCredentials(path string) *Credentials {
	return &Credentials{path: path}
}

func (c *Credentials) Path() string { return c.path }

// Token returns the stored token, or "" when there is none.
func (c *Credentials) Token() (string, error) {
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	v := viper.New()
	v.SetConfigFile(c.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	return v.GetString(TokenKey), nil
}

func (c *Credentials) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := yaml.Marshal(map[string]string{TokenKey: token})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (c *Credentials) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
