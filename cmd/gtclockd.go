package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/logger"
	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/gtudpd"
	"github.com/karasz/gtscale/internal/config"
	"github.com/karasz/gtscale/tai64"
	"github.com/karasz/gtscale/timescale"
)

// TAICLOCK Protocol:
//
// The TAICLOCK protocol provides TAI timestamps over UDP. It follows DJB's
// simple time protocol design with TAI64N labels instead of UTC.
//
//   - Transport: UDP
//   - Default Port: 4014
//
// Request Format (20 bytes minimum):
//
//	Bytes 0-3:  Magic bytes "ctai"
//	Bytes 4-19: Client data, ignored by the server
//	Bytes 20-:  Optional client data echoed back, gtclockc puts a nonce here
//
// Response Format (same length as the request):
//
//	Byte  0:     Response marker "s"
//	Bytes 1-3:   Copied from request
//	Bytes 4-15:  TAI64N label of the server's clock
//	Bytes 16-:   Copied from request
const (
	requestMagic   = "ctai"
	responseMarker = 's'
	minRequestSize = 20
	labelOffset    = 4
)

// sendResponse answers one TAICLOCK request with the current TAI time.
func sendResponse(conn *net.UDPConn, n int, remoteaddr *net.UDPAddr, buf []byte) {
	label, err := tai64.Pack(timescale.TAI.Now())
	if err != nil {
		return
	}
	buf[0] = responseMarker
	copy(buf[labelOffset:labelOffset+tai64.Length], label)
	// UDP is best effort; a lost reply is retried by the client
	_, _ = conn.WriteToUDP(buf[:n], remoteaddr)
}

// validateTAINRequest returns a validator accepting well formed requests
// from permitted clients.
func validateTAINRequest(config *gtudpd.Config) gtudpd.RequestValidator {
	return func(n int, buf []byte, remoteIP net.IP) bool {
		if n < minRequestSize || n > config.MaxRequestSize {
			return false
		}
		if string(buf[:len(requestMagic)]) != requestMagic {
			return false
		}

		// may touch the filesystem
		return config.ClientOK(remoteIP)
	}
}

// serverConfig maps the daemon configuration onto the UDP server's.
func serverConfig(cfg *config.Configuration) *gtudpd.Config {
	return &gtudpd.Config{
		DefaultPort:            cfg.Port,
		ConfigDir:              cfg.ConfigDirectory,
		MaxConcurrentResponses: cfg.MaxConcurrentResponses,
		MaxRequestSize:         cfg.MaxRequestSize,
		MaxRequestsPerIP:       cfg.MaxRequestsPerIP,
		RateLimitWindow:        cfg.RateLimit(),
	}
}

func newGTClockDCmd() *cobra.Command {
	var configFile, configDir string

	c := &cobra.Command{
		Use:   "gtclockd",
		Short: "Serve TAI64N time over the TAICLOCK protocol",
		Long: `gtclockd answers TAICLOCK requests on UDP port 4014 with the TAI64N label
of the local clock.

With -d DIR, DIR/port may name another port and only clients with a file
named after their address, or its /8, /16 or /24 prefix, in DIR are
answered. A file named 0 admits every client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if configFile != "" {
				var err error
				if cfg, err = config.Load(configFile); err != nil {
					return err
				}
			}
			if configDir != "" {
				cfg.ConfigDirectory = configDir
			}

			if err := logger.Initialise(cfg.Logging); err != nil {
				return err
			}
			defer logger.Finalise()
			log := logger.New("gtclockd")

			srvConfig := serverConfig(cfg)
			server, err := gtudpd.NewServer(srvConfig, sendResponse, validateTAINRequest(srvConfig))
			if err != nil {
				log.Criticalf("start: %s", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			done := make(chan struct{})
			go func() {
				server.Start()
				close(done)
			}()

			log.Infof("TAIN time server listening on %s", server.Addr())
			return waitAndStop(ctx, server, done, log)
		},
	}
	c.Flags().StringVarP(&configDir, "dir", "d", "", "config directory holding the port and client access files")
	c.Flags().StringVarP(&configFile, "config", "c", "", "Lua configuration file")
	return c
}

// waitAndStop stops server once ctx ends and waits for its request loop
// to return.
func waitAndStop(ctx context.Context, server *gtudpd.Server, done <-chan struct{}, log *logger.L) error {
	select {
	case <-ctx.Done():
		log.Infof("signal: %s", context.Cause(ctx))
	case <-done:
	}
	err := server.Stop()
	<-done
	return err
}
