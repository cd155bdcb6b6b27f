// Package config loads and persists the connection settings used to reach
// the remote cluster. Settings live in a single JSON file, are read once
// at startup, and are passed around as an immutable value; only the setup
// command writes the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// FileName is the config file name under the user's home directory.
const FileName = ".hiveline.json"

// SSH holds the parameters for reaching the edge node.
type SSH struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required,min=1,max=65535"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password"`
	KeyFile  string `json:"key_file"`
}

// Beeline holds the remote SQL client invocation parameters.
type Beeline struct {
	// EnvPath is an environment script sourced before any hadoop command.
	EnvPath string `json:"env_path" validate:"required"`
	// KeytabPath and Principal identify the Kerberos credentials.
	KeytabPath string `json:"keytab_path" validate:"required"`
	Principal  string `json:"principal" validate:"required"`
	// BinPath is the beeline executable on the edge node.
	BinPath string `json:"bin_path" validate:"required"`
	// DefaultQueue is used when a statement does not name a queue.
	DefaultQueue string `json:"default_queue"`
}

// Transfer holds the directories used for file exchange with the edge node.
type Transfer struct {
	// RemoteDir is where uploads land on the edge node.
	RemoteDir string `json:"remote_dir" validate:"required"`
	// ExportDir is the HDFS directory used for table exports.
	ExportDir string `json:"export_dir" validate:"required"`
}

// Config is the full persisted configuration.
type Config struct {
	SSH      SSH      `json:"ssh" validate:"required"`
	Beeline  Beeline  `json:"beeline" validate:"required"`
	Transfer Transfer `json:"transfer" validate:"required"`
	// LogDir is where query logs are written; empty disables logging.
	LogDir string `json:"log_dir"`
}

var validate = validator.New()

// DefaultPath returns the config file location in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Load reads and validates the config at path.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("no configuration at %s, run 'hiveline setup' first", path)
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed %q validation", e.Namespace(), e.Tag())
		}
		return err
	}
	if c.SSH.Password == "" && c.SSH.KeyFile == "" {
		return fmt.Errorf("ssh: either password or key_file must be set")
	}
	return nil
}

// Save writes the config to path with mode 0600; it contains credentials.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Placeholder returns a config populated with example values, used by
// non-interactive setup as an editable starting point.
func Placeholder() Config {
	return Config{
		SSH: SSH{
			Host:     "10.0.0.1",
			Port:     22,
			User:     "analyst",
			Password: "change-me",
		},
		Beeline: Beeline{
			EnvPath:      "/opt/client/bigdata_env",
			KeytabPath:   "/opt/client/user.keytab",
			Principal:    "analyst@EXAMPLE.COM",
			BinPath:      "/opt/client/Hive/Beeline/bin/beeline",
			DefaultQueue: "default",
		},
		Transfer: Transfer{
			RemoteDir: "/home/analyst/uploads",
			ExportDir: "/tmp/hiveline_exports",
		},
		LogDir: "~/hiveline_logs",
	}
}
