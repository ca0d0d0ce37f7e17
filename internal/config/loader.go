package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load reads a YAML configuration file over the defaults. An empty path returns
// the defaults. Provider-dependent defaults are applied but the result is not
// validated, so that callers can merge flag overrides first.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.ApplyProviderDefaults()
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	// Keys missing from the file keep their default values.
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	cfg.ApplyProviderDefaults()
	return cfg, nil
}
