package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds wbctl settings. Defaults come from WBCTL_* environment variables.
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig resolves settings from the environment
func DefaultConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("wbctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", "http://localhost:3001")
	v.SetDefault("token-file", defaultTokenFile())
	v.SetDefault("output", "text")

	return &Config{
		ServerURL: v.GetString("server"),
		Token:     v.GetString("token"),
		TokenFile: v.GetString("token-file"),
		Output:    v.GetString("output"),
	}
}

// LoadToken reads the saved session token unless one was given explicitly
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken stores token for later invocations
func (c *Config) SaveToken(token string) error {
	c.Token = token
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

// ClearToken forgets the token and removes the token file
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".wbctl", "token")
	}
	return filepath.Join(home, ".wbctl", "token")
}
