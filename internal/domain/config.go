package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Repositories []RepositoryConfig `mapstructure:"repositories"`
	Transfer     TransferConfig     `mapstructure:"transfer"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RegistryConfig contains registry persistence configuration
type RegistryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// RepositoryConfig identifies one remote metadata repository
type RepositoryConfig struct {
	Name string `mapstructure:"name"`
	URI  string `mapstructure:"uri"`
}

// TransferConfig contains download-related configuration
type TransferConfig struct {
	TempDir string        `mapstructure:"temp_dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Registry: RegistryConfig{
			DatabasePath: "$HOME/.pkgsync/registry.db",
		},
		Repositories: []RepositoryConfig{},
		Transfer: TransferConfig{
			TempDir: "",
			Timeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
