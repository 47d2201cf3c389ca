// Package config reads the gtclockd configuration file.
//
// The file is a Lua script returning a table, for example:
//
//	local M = {}
//	M.port = 4014
//	M.config_directory = "/etc/gtclockd"
//	M.max_requests_per_ip = 100
//	M.rate_limit_window = 1000 -- milliseconds
//	M.logging = {
//	    directory = "log",
//	    file = "gtclockd.log",
//	    size = 1048576,
//	    count = 10,
//	    console = true,
//	    levels = { DEFAULT = "info" },
//	}
//	return M
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

const (
	defaultPort     = ":4014"
	defaultLogFile  = "gtclockd.log"
	defaultLogCount = 10
	defaultLogSize  = 1024 * 1024
)

// ErrNotTable is returned when the script does not leave a table on the
// stack.
var ErrNotTable = errors.New("configuration script must return a table")

// Configuration holds the daemon settings. Zero numeric values select the
// server's built-in defaults.
type Configuration struct {
	Port                   string               `gluamapper:"port" json:"port"`
	ConfigDirectory        string               `gluamapper:"config_directory" json:"config_directory"`
	MaxConcurrentResponses int                  `gluamapper:"max_concurrent_responses" json:"max_concurrent_responses"`
	MaxRequestSize         int                  `gluamapper:"max_request_size" json:"max_request_size"`
	MaxRequestsPerIP       int                  `gluamapper:"max_requests_per_ip" json:"max_requests_per_ip"`
	RateLimitWindow        int                  `gluamapper:"rate_limit_window" json:"rate_limit_window"`
	Logging                logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Default returns the configuration used when no file is given: port 4014,
// logging to the console and to a file in the system temporary directory.
func Default() *Configuration {
	return &Configuration{
		Port: defaultPort,
		Logging: logger.Configuration{
			Directory: os.TempDir(),
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Console:   true,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}
}

// RateLimit returns the rate limit window as a duration.
func (c *Configuration) RateLimit() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Millisecond
}

// Load reads fileName over the defaults. Relative directories in the file
// are taken from the file's own directory, and the log directory is
// created if missing.
func Load(fileName string) (*Configuration, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(fileName)

	options := Default()
	options.Logging.Directory = "log"

	if err := ParseFile(fileName, options); err != nil {
		return nil, err
	}

	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	options.Logging.Directory = ensureAbsolute(baseDir, options.Logging.Directory)
	if options.ConfigDirectory != "" {
		options.ConfigDirectory = ensureAbsolute(baseDir, options.ConfigDirectory)
	}

	if err := os.MkdirAll(options.Logging.Directory, 0o700); err != nil {
		return nil, err
	}
	return options, nil
}

func (c *Configuration) validate() error {
	if c.MaxConcurrentResponses < 0 || c.MaxRequestSize < 0 || c.MaxRequestsPerIP < 0 || c.RateLimitWindow < 0 {
		return errors.New("negative limit")
	}
	switch filepath.Dir(c.Logging.File) {
	case "", ".":
	default:
		return fmt.Errorf("log file %q is not a plain name", c.Logging.File)
	}
	if c.Logging.File == "" {
		return errors.New("empty log file name")
	}
	return nil
}

func ensureAbsolute(directory, fileName string) string {
	if filepath.IsAbs(fileName) {
		return filepath.Clean(fileName)
	}
	return filepath.Join(directory, fileName)
}

// ParseFile executes the Lua file fileName and maps the table it returns
// onto config, which must be a pointer to a struct.
func ParseFile(fileName string, config interface{}) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	// arg[0] = config file
	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(fileName))
	L.SetGlobal("arg", arg)

	if err := L.DoFile(fileName); err != nil {
		return err
	}

	table, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return ErrNotTable
	}

	mapper := gluamapper.Mapper{Option: gluamapper.Option{
		NameFunc: func(s string) string {
			return s
		},
		TagName: "gluamapper",
	}}
	return mapper.Map(table, config)
}
