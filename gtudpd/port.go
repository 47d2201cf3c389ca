package gtudpd

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// parsePortString normalises "4014" or ":4014" to ":4014". Port numbers
// outside 1..65535 are rejected.
func parsePortString(portStr string) (string, bool) {
	portNum := strings.TrimPrefix(portStr, ":")
	port, err := strconv.Atoi(portNum)
	if err != nil || port <= 0 || port > 65535 {
		return "", false
	}
	return ":" + strconv.Itoa(port), true
}

// defaultPort returns DefaultPort normalised when it is a plain port
// number, or unchanged otherwise (":0", "127.0.0.1:4014").
func (config *Config) defaultPort() string {
	if p, ok := parsePortString(config.DefaultPort); ok {
		return p
	}
	return config.DefaultPort
}

// GetPort returns the listen address in ":port" form. A valid port number
// in <ConfigDir>/port wins over DefaultPort.
func (config *Config) GetPort() string {
	if config.ConfigDir == "" {
		return config.defaultPort()
	}

	portFile := filepath.Join(config.ConfigDir, "port")
	if !insideDir(portFile, config.ConfigDir) {
		return config.defaultPort()
	}

	data, err := os.ReadFile(portFile)
	if err != nil {
		return config.defaultPort()
	}

	if result, valid := parsePortString(strings.TrimSpace(string(data))); valid {
		return result
	}
	return config.defaultPort()
}
