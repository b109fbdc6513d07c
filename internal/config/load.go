package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// Load builds the startup configuration: defaults, then the config file (if
// present), then .env / environment overrides, then validation. The result is
// never re-read at runtime.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional: env-only setups run without a file.
		case err != nil:
			return nil, err
		default:
			jb, _, err := coerceToJSONBytes(path, b)
			if err != nil {
				return nil, err
			}
			dec := json.NewDecoder(bytes.NewReader(jb))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			// reject trailing tokens (e.g. concatenated documents)
			if err := dec.Decode(&struct{}{}); err != io.EOF {
				if err == nil {
					return nil, fmt.Errorf("parse %s: trailing data", path)
				}
				return nil, err
			}
		}
	}

	// .env beside the binary's working directory, then real env on top.
	_ = godotenv.Load()
	applyEnv(&cfg)

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv layers the historical environment variables over the file config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REPO_PATH"); v != "" {
		cfg.Repo.Path = v
	}
	if v := os.Getenv("WORK_START_HOUR"); v != "" {
		cfg.Schedule.WindowStart = v
	}
	if v := os.Getenv("WORK_END_HOUR"); v != "" {
		cfg.Schedule.WindowEnd = v
	}
	if v, ok := envInt("MIN_COMMITS"); ok {
		cfg.Schedule.MinCommits = v
	}
	if v, ok := envInt("MAX_COMMITS"); ok {
		cfg.Schedule.MaxCommits = v
	}
	if v := os.Getenv("COMMIT_FILE"); v != "" {
		cfg.Repo.CommitFile = v
	}
	if v := os.Getenv("COMMIT_MESSAGE_TEMPLATE"); v != "" {
		cfg.Repo.MessageTemplate = v
	}
	if v := os.Getenv("GIT_PUSH"); v != "" {
		push := isTruthy(v)
		cfg.Repo.Push = &push
	}
	if v := os.Getenv("USER_NAME"); v != "" {
		cfg.Repo.UserName = v
	}
	if v := os.Getenv("USER_EMAIL"); v != "" {
		cfg.Repo.UserEmail = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.State.Path = v
	}
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
