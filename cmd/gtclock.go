package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/tai64"
	"github.com/karasz/gtscale/timescale"
)

const (
	tainPacket  = 28
	nonceOffset = 20
	nonceLength = tainPacket - nonceOffset
)

const (
	letterBytes   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	letterIdxBits = 6
	letterIdxMask = 1<<letterIdxBits - 1
	letterIdxMax  = 63 / letterIdxBits
)

var (
	// ErrBadReply is returned for a reply that does not answer our query.
	ErrBadReply = errors.New("malformed TAICLOCK reply")
	// ErrNoReply is returned when no exchange with the server succeeded.
	ErrNoReply = errors.New("no reply from server")
)

var src = rand.NewSource(time.Now().UnixNano())

func randomString(n int) string {
	b := make([]byte, n)
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return string(b)
}

// makeQuery builds a TAICLOCK request carrying the local TAI time and a
// fresh nonce the server echoes back.
func makeQuery(t0 timescale.TimePoint) (query []byte, err error) {
	query = make([]byte, tainPacket)
	copy(query, requestMagic)
	label, err := tai64.Pack(t0)
	if err != nil {
		return nil, err
	}
	copy(query[labelOffset:], label)
	copy(query[nonceOffset:], randomString(nonceLength))
	return query, nil
}

// decodeResp returns the server time in resp, checking that it answers
// query.
func decodeResp(query, resp []byte) (timescale.TimePoint, error) {
	if len(resp) != len(query) || resp[0] != responseMarker {
		return timescale.TimePoint{}, ErrBadReply
	}
	if !bytes.Equal(resp[nonceOffset:], query[nonceOffset:]) {
		return timescale.TimePoint{}, fmt.Errorf("%w: nonce mismatch", ErrBadReply)
	}
	return tai64.Unpack(resp[labelOffset : labelOffset+tai64.Length])
}

// sample is one timed exchange with the server.
type sample struct {
	server timescale.TimePoint // server clock, corrected by half the round trip
	local  timescale.TimePoint // local clock when the reply arrived
	rtt    time.Duration
}

// offset returns how far the local clock is behind the server's.
func (s sample) offset() time.Duration {
	d, _ := s.server.Sub(s.local)
	return d
}

// tainExchange sends one query on conn and waits up to timeout for the
// matching reply. Stale replies to earlier queries are skipped.
func tainExchange(conn net.Conn, timeout time.Duration) (sample, error) {
	t0 := timescale.TAI.Now()
	query, err := makeQuery(t0)
	if err != nil {
		return sample{}, err
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return sample{}, err
	}
	if _, err := conn.Write(query); err != nil {
		return sample{}, err
	}

	answer := make([]byte, tainPacket+1)
	for {
		n, err := conn.Read(answer)
		if err != nil {
			return sample{}, err
		}
		t1 := timescale.TAI.Now()
		server, err := decodeResp(query, answer[:n])
		if errors.Is(err, ErrBadReply) {
			continue
		}
		if err != nil {
			return sample{}, err
		}
		rtt, _ := t1.Sub(t0)
		return sample{server: server.Add(rtt / 2), local: t1, rtt: rtt}, nil
	}
}

// measureServerTime runs rounds exchanges and keeps the one with the
// shortest round trip.
func measureServerTime(conn net.Conn, rounds int, timeout time.Duration) (sample, error) {
	var (
		best  sample
		found bool
		last  error
	)
	for i := 0; i < rounds; i++ {
		s, err := tainExchange(conn, timeout)
		if err != nil {
			last = err
			continue
		}
		if !found || s.rtt < best.rtt {
			best, found = s, true
		}
	}
	if !found {
		if last != nil {
			return sample{}, fmt.Errorf("%w: %w", ErrNoReply, last)
		}
		return sample{}, ErrNoReply
	}
	return best, nil
}

// parseGTClockArgs parses the client's positional arguments.
func parseGTClockArgs(args []string) (servIP net.IP, saveClock bool, err error) {
	switch len(args) {
	case 2:
		if args[1] != "saveclock" {
			return nil, false, fmt.Errorf("unknown argument: %s", args[1])
		}
		saveClock = true
		fallthrough
	case 1:
		servIP = net.ParseIP(args[0])
		if servIP == nil {
			return nil, false, fmt.Errorf("invalid IP address: %s", args[0])
		}
	default:
		return nil, false, errors.New("unknown number of arguments. Please use 1 or 2")
	}
	return servIP, saveClock, nil
}

// printSample writes the server time on every scale and the local offset.
func printSample(w io.Writer, s sample) error {
	for _, scale := range []timescale.Scale{timescale.UTC, timescale.TAI, timescale.TT} {
		tp, err := s.server.In(scale)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%-6s %s\n", scale, tp)
	}
	_, _ = fmt.Fprintf(w, "%-6s %s\n", "offset", s.offset())
	_, _ = fmt.Fprintf(w, "%-6s %s\n", "rtt", s.rtt)
	return nil
}

func newGTClockCCmd() *cobra.Command {
	var (
		port    int
		rounds  int
		timeout time.Duration
	)

	c := &cobra.Command{
		Use:   "gtclockc IP [saveclock]",
		Short: "Ask a TAICLOCK server for the time",
		Long: `gtclockc queries the TAICLOCK server at IP several times and prints the
server's time from the exchange with the shortest round trip, on every
timescale, along with the local clock's offset from it.

With saveclock it also moves the system clock by that offset, which
requires privileges.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			servIP, saveClock, err := parseGTClockArgs(args)
			if err != nil {
				return err
			}
			if rounds < 1 {
				return fmt.Errorf("rounds must be positive: %d", rounds)
			}
			serverAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(servIP.String(), strconv.Itoa(port)))
			if err != nil {
				return err
			}
			conn, err := net.DialUDP("udp", nil, serverAddr)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			s, err := measureServerTime(conn, rounds, timeout)
			if err != nil {
				return err
			}

			if saveClock {
				if err := setSystemClock(s.offset()); err != nil {
					return fmt.Errorf("saveclock: %w", err)
				}
			}
			return printSample(cmd.OutOrStdout(), s)
		},
	}
	c.Flags().IntVarP(&port, "port", "p", 4014, "server UDP port")
	c.Flags().IntVarP(&rounds, "rounds", "n", 10, "number of exchanges")
	c.Flags().DurationVar(&timeout, "timeout", time.Second, "wait for each reply")
	return c
}
