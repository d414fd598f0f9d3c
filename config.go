package speak

import (
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// Settings is the concrete Config implementation loaded from file and
// environment.
type Settings struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	SocketURL   string        `mapstructure:"socket_url"`
	TokenPath   string        `mapstructure:"token_path"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

var _ Config = (*Settings)(nil)

func (s *Settings) GetAPIBaseURL() string {
	return s.APIBaseURL
}

func (s *Settings) GetSocketURL() string {
	return s.SocketURL
}

func (s *Settings) GetTokenPath() string {
	return s.TokenPath
}

func (s *Settings) GetHTTPTimeout() time.Duration {
	return s.HTTPTimeout
}

// LoadSettings reads client settings from an optional speak.yaml in the
// given directories, overridden by SPEAK_* environment variables. Missing
// files are fine; defaults apply.
func LoadSettings(paths ...string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("speak")
	v.SetConfigType("yaml")

	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPEAK")
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "http://localhost:5000")
	v.SetDefault("socket_url", "ws://localhost:5000/socket")
	v.SetDefault("token_path", "")
	v.SetDefault("http_timeout", 30*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read config file")
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode config")
	}

	return settings, nil
}
