package config

import "time"

// CLIConfig is the configuration for respkv-cli.
type CLIConfig struct {
	// Default connection settings
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`

	// Output format: text, json, yaml
	Output string `yaml:"output"`

	// HistoryFile is where the interactive mode keeps its history.
	// Empty disables persistence.
	HistoryFile string `yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Host:        "127.0.0.1",
		Port:        6379,
		Timeout:     5 * time.Second,
		Output:      "text",
		HistoryFile: DefaultHistoryPath(),
	}
}
