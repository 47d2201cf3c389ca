package gtudpd

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ClientOK reports whether ip may use the server, following djb's clientok
// convention: the client is accepted when the config directory holds a
// file named after it, after its /24, /16 or /8 prefix for IPv4, or a file
// named "0", which accepts everybody. An empty config directory accepts all
// clients.
func (config *Config) ClientOK(ip net.IP) bool {
	if config.ConfigDir == "" {
		return true
	}
	for _, name := range clientNames(ip) {
		if config.hasFile(name) {
			return true
		}
	}
	return false
}

// clientNames lists the file names that admit ip, broadest first.
func clientNames(ip net.IP) []string {
	names := []string{"0"}
	if ip4 := ip.To4(); ip4 != nil {
		prefix := ""
		for i := 0; i < 3; i++ {
			if i > 0 {
				prefix += "."
			}
			prefix += strconv.Itoa(int(ip4[i]))
			names = append(names, prefix)
		}
	}
	return append(names, ip.String())
}

// hasFile reports whether the config directory contains name.
func (config *Config) hasFile(name string) bool {
	if !isValidNetworkName(name) {
		return false
	}
	path := filepath.Join(config.ConfigDir, name)
	if !insideDir(path, config.ConfigDir) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// isValidNetworkName accepts only characters that appear in IP addresses.
func isValidNetworkName(name string) bool {
	if name == "" {
		return false
	}
	return strings.Trim(name, "0123456789abcdefABCDEF.:") == ""
}

// insideDir reports whether path resolves to an entry below dir.
func insideDir(path, dir string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(absPath, absDir+string(filepath.Separator))
}
