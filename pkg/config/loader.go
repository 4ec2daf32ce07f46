package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/MoeTools/nessus/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}

// envKeys maps the documented environment variables onto config keys.
// Anything not listed here is ignored, so unrelated container environment
// never leaks into the configuration.
var envKeys = map[string]string{
	"NAME":                 "name",
	"USERNAME":             "username",
	"PASSWORD":             "password",
	"ACTIVATION_CODE":      "activation_code",
	"LINKING_KEY":          "linking_key",
	"AUTO_UPDATE":          "auto_update",
	"DISABLE_CORE_UPDATES": "disable_core_updates",
	"MANAGER_HOST":         "manager.host",
	"MANAGER_PORT":         "manager.port",
	"PROXY":                "proxy.host",
	"PROXY_PORT":           "proxy.port",
	"PROXY_USER":           "proxy.username",
	"PROXY_PASS":           "proxy.password",
	"RETRY_ON_FAIL":        "retry.enabled",
	"RETRY_ON_FAIL_SLEEP":  "retry.delay",
	"GLOBAL_DB_TIMEOUT":    "readiness.timeout",
	"DIALOGUE_TIMEOUT":     "dialogue.timeout",
	"NESSUSCLI_PATH":       "paths.cli",
	"SUPERVISORCTL_PATH":   "paths.supervisor",
	"SERVICE_NAME":         "paths.service",
	"GLOBAL_DB_PATH":       "paths.database",
}

// configFiles are the operator config file locations probed in order.
var configFiles = []string{
	"/etc/nessus-configure.toml",
	"/etc/nessus-configure.yaml",
}

// Load builds the configuration from embedded defaults, an optional config
// file and environment variables, in increasing order of precedence.
// An empty path probes the default file locations; a non-empty path must
// exist.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Operator config file, when present
	candidates := configFiles
	if path != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			if path != "" {
				return Config{}, errors.Wrapf(err, errors.ErrConfigLoad,
					"config file %s not readable", p)
			}
			continue
		}
		if err := k.Load(file.Provider(p), parserFor(p)); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to parse config file %s", p)
		}
		break
	}

	// 3. Environment variables
	if err := k.Load(env.ProviderWithValue("", ".", mapEnvVar), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				durationHookFunc(),
				boolHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if cfg.Name == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.Name = host
		}
	}

	return cfg, nil
}

// mapEnvVar admits only the documented environment variables. An empty
// value counts as unset, so `VAR=` in a compose file keeps the default.
func mapEnvVar(key, value string) (string, interface{}) {
	mapped := envKeys[key]
	if mapped == "" || value == "" {
		return "", nil
	}
	return mapped, value
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// durationHookFunc parses durations from "30s" style strings as well as
// bare numbers, which the original environment contract treats as seconds.
func durationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			if v == "" {
				return time.Duration(0), nil
			}
			if d, err := time.ParseDuration(v); err == nil {
				return d, nil
			}
			if n, err := strconv.Atoi(v); err == nil {
				return time.Duration(n) * time.Second, nil
			}
			return nil, fmt.Errorf("invalid duration %q", v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}
		return data, nil
	}
}

// boolHookFunc accepts the yes/no spellings the scanner tooling uses in
// addition to Go's usual boolean forms.
func boolHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
			return data, nil
		}
		s := strings.ToLower(strings.TrimSpace(data.(string)))
		switch s {
		case "", "0", "false", "no", "off":
			return false, nil
		case "1", "true", "yes", "on":
			return true, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", s)
	}
}
