// Package setup registers the interva MCP server with Claude Desktop.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ServerKey is the mcpServers entry written for interva.
const ServerKey = "interva"

// ClaudeDesktopConfig represents the Claude Desktop configuration file structure.
// Keys other than mcpServers are preserved on save.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls what Configure writes.
type Options struct {
	BinaryPath   string // defaults to the running executable
	DataDir      string
	ProbbasePath string
	Malaria      string
	HIV          string
}

// ClaudeDesktopConfigPath returns the path to Claude Desktop's config file.
func ClaudeDesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// Load reads the config at path. A missing file yields an empty config.
func Load(path string) (*ClaudeDesktopConfig, error) {
	cfg := &ClaudeDesktopConfig{MCPServers: map[string]MCPServerConfig{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if raw, ok := cfg.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = map[string]MCPServerConfig{}
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *ClaudeDesktopConfig) error {
	out := make(map[string]any, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Configure adds or replaces the interva entry in the config at path.
func Configure(path string, opts Options) (MCPServerConfig, error) {
	if opts.BinaryPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return MCPServerConfig{}, fmt.Errorf("failed to locate binary: %w", err)
		}
		opts.BinaryPath = exe
	}
	binary, err := filepath.Abs(opts.BinaryPath)
	if err != nil {
		return MCPServerConfig{}, fmt.Errorf("failed to resolve binary path: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return MCPServerConfig{}, err
	}

	entry := MCPServerConfig{
		Command: binary,
		Args:    []string{"mcp"},
		Env:     map[string]string{},
	}
	for key, value := range map[string]string{
		"INTERVA_DATA_DIR": opts.DataDir,
		"INTERVA_PROBBASE": opts.ProbbasePath,
		"INTERVA_MALARIA":  opts.Malaria,
		"INTERVA_HIV":      opts.HIV,
	} {
		if value != "" {
			entry.Env[key] = value
		}
	}
	if len(entry.Env) == 0 {
		entry.Env = nil
	}

	cfg.MCPServers[ServerKey] = entry
	if err := Save(path, cfg); err != nil {
		return MCPServerConfig{}, err
	}
	return entry, nil
}

// Status describes the current registration.
type Status struct {
	ConfigPath string
	Configured bool
	Command    string
	DataDir    string
	Issues     []string
}

// GetStatus inspects the config at path.
func GetStatus(path string) (*Status, error) {
	status := &Status{ConfigPath: path}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	entry, ok := cfg.MCPServers[ServerKey]
	if !ok {
		status.Issues = append(status.Issues, "interva is not registered")
		return status, nil
	}
	status.Configured = true
	status.Command = entry.Command
	status.DataDir = entry.Env["INTERVA_DATA_DIR"]

	if _, err := os.Stat(entry.Command); os.IsNotExist(err) {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found at: %s", entry.Command))
	}
	if status.DataDir != "" {
		if _, err := os.Stat(status.DataDir); os.IsNotExist(err) {
			status.Issues = append(status.Issues, fmt.Sprintf("data directory will be created on first run: %s", status.DataDir))
		}
	}
	return status, nil
}
