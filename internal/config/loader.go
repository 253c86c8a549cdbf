package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"base-url":    "baseURL",
	"api-prefix":  "apiPrefix",
	"mode":        "mode",
	"home-route":  "routes.home",
	"login-route": "routes.login",
}

// LoadAuthConfig reads an optional YAML file, overlays any flags that map onto
// configuration keys, then normalizes and validates the result.
func LoadAuthConfig(path string, flags *pflag.FlagSet) (AuthConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return AuthConfig{}, errors.Wrapf(err, "[config LoadAuthConfig] loading %s", path)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return AuthConfig{}, errors.Wrapf(err, "[config LoadAuthConfig] loading flags")
		}
	}

	var cfg AuthConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return AuthConfig{}, errors.Wrapf(err, "[config LoadAuthConfig] decoding")
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return AuthConfig{}, err
	}
	return cfg, nil
}
