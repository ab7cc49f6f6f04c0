package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultAPIURL  = "http://127.0.0.1:5001/api"
	configFileName = "config.yaml"
	credsFileName  = "credentials"
)

// Settings is the terminal client's configuration.
type Settings struct {
	APIURL            string        `mapstructure:"api_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	QuestionThreshold int           `mapstructure:"question_threshold"`
	CredentialsPath   string        `mapstructure:"credentials_path"`
}

// Dir returns ~/.mindmesh
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mindmesh"
	}
	return filepath.Join(home, ".mindmesh")
}

// LoadSettings merges defaults, the config file, MINDMESH_* environment
// variables and the --api-url flag, in increasing precedence.
func LoadSettings(path string, cmd *cobra.Command) (Settings, error) {
	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", backend.DefaultTimeout)
	v.SetDefault("question_threshold", domain.DefaultQuestionLimit)
	v.SetDefault("credentials_path", filepath.Join(Dir(), credsFileName))

	v.SetEnvPrefix("MINDMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if f := cmd.Flags().Lookup("api-url"); f != nil {
			if err := v.BindPFlag("api_url", f); err != nil {
				return Settings{}, err
			}
		}
	}

	if path == "" {
		path = filepath.Join(Dir(), configFileName)
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	if s.APIURL == "" {
		return Settings{}, fmt.Errorf("api_url must not be empty")
	}
	if s.QuestionThreshold < 1 {
		return Settings{}, fmt.Errorf("question_threshold must be at least 1")
	}
	return s, nil
}
