package cmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/karasz/gtscale/timescale"
)

type mode byte

// ntpTime is an NTP timestamp: UTC seconds since 1900 in the high 32 bits
// and a binary fraction in the low 32.
type ntpTime uint64

const (
	reserved mode = 0 + iota
	symmetricActive
	symmetricPassive
	client
	server
	broadcast
	controlMessage
	reservedPrivate
)

const (
	nanoPerSec = 1e9
	// seconds from 1900-01-01 to 1970-01-01
	ntpEpochOffset = 2208988800
)

// ErrBadNTPReply is returned for a reply that does not answer our query.
var ErrBadNTPReply = errors.New("malformed NTP reply")

// duration returns the time since the NTP epoch, rounding the fraction to
// the nearest nanosecond.
func (t ntpTime) duration() time.Duration {
	sec := (t >> 32) * nanoPerSec
	frac := (t & 0xffffffff) * nanoPerSec
	nsec := frac >> 32
	if uint32(frac) >= 0x80000000 {
		nsec++
	}
	return time.Duration(sec + nsec)
}

// utc returns the UTC time point t names.
func (t ntpTime) utc() timescale.TimePoint {
	return timescale.NewTimePoint(timescale.UTC, int64(t.duration())-ntpEpochOffset*nanoPerSec)
}

// encode returns the NTP timestamp of tp.
func encode(tp timescale.TimePoint) (ntpTime, error) {
	utc, err := tp.In(timescale.UTC)
	if err != nil {
		return 0, err
	}
	ns := utc.Nanoseconds()
	if ns < -ntpEpochOffset*nanoPerSec {
		return 0, fmt.Errorf("%s before 1900: %w", utc, timescale.ErrOutOfRange)
	}
	nsec := uint64(ns + ntpEpochOffset*nanoPerSec)
	sec := nsec / nanoPerSec
	frac := (nsec - sec*nanoPerSec) << 32 / nanoPerSec
	return ntpTime(sec<<32 | frac), nil
}

func (t ntpTime) sub(tt ntpTime) time.Duration {
	return t.duration() - tt.duration()
}

type msg struct {
	LiVnMode       byte // Leap Indicator (2) + Version (3) + Mode (3)
	Stratum        byte
	Poll           byte
	Precision      byte
	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    uint32
	ReferenceTime  ntpTime
	OriginateTime  ntpTime
	ReceiveTime    ntpTime
	TransmitTime   ntpTime
}

func (m *msg) setVersion(v byte) {
	m.LiVnMode = (m.LiVnMode & 0xc7) | v<<3
}

func (m *msg) setMode(md mode) {
	m.LiVnMode = (m.LiVnMode & 0xf8) | byte(md)
}

func (m *msg) mode() mode {
	return mode(m.LiVnMode & 0x07)
}

// leap returns the leap indicator: 1 and 2 announce an inserted or
// deleted second at the end of the day, 3 an unsynchronised server.
func (m *msg) leap() byte {
	return m.LiVnMode >> 6
}

// getTime sends one client mode query on conn and returns the server's
// reply along with the local time it arrived.
func getTime(conn net.Conn, timeout time.Duration) (msg, ntpTime, error) {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return msg{}, 0, err
	}

	m := new(msg)
	m.setMode(client)
	m.setVersion(4)
	sent, err := encode(timescale.UTC.Now())
	if err != nil {
		return msg{}, 0, err
	}
	m.TransmitTime = sent

	if err := binary.Write(conn, binary.BigEndian, m); err != nil {
		return msg{}, 0, err
	}

	reply := new(msg)
	if err := binary.Read(conn, binary.BigEndian, reply); err != nil {
		return msg{}, 0, err
	}

	dest, err := encode(timescale.UTC.Now())
	if err != nil {
		return msg{}, 0, err
	}

	if reply.mode() != server || reply.OriginateTime != sent {
		return msg{}, 0, ErrBadNTPReply
	}
	return *reply, dest, nil
}

// getParams returns the local clock's offset from the server and the
// round trip time.
func getParams(m msg, dest ntpTime) (offset time.Duration, rtt time.Duration) {
	t1 := m.OriginateTime
	t2 := m.ReceiveTime
	t3 := m.TransmitTime
	t4 := dest
	offset = (t2.sub(t1) + t3.sub(t4)) / 2
	rtt = t4.sub(t1) - t3.sub(t2)
	return offset, rtt
}

// printNTP writes the server's transmit time on every scale followed by
// the offset and round trip.
func printNTP(w io.Writer, m msg, dest ntpTime) error {
	offset, rtt := getParams(m, dest)
	at := dest.utc().Add(offset)
	for _, scale := range []timescale.Scale{timescale.UTC, timescale.TAI, timescale.TT} {
		tp, err := at.In(scale)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%-7s %s\n", scale, tp)
	}
	_, _ = fmt.Fprintf(w, "%-7s %s\n", "offset", offset)
	_, _ = fmt.Fprintf(w, "%-7s %s\n", "rtt", rtt)
	_, _ = fmt.Fprintf(w, "%-7s %d\n", "stratum", m.Stratum)
	_, _ = fmt.Fprintf(w, "%-7s %d\n", "leap", m.leap())
	return nil
}

func newGNTPClockCCmd() *cobra.Command {
	var (
		port    int
		timeout time.Duration
	)

	c := &cobra.Command{
		Use:   "gntpclockc IP [saveclock]",
		Short: "Ask an SNTP server for the time",
		Long: `gntpclockc queries the NTP server at IP in SNTP client mode and prints the
server's time on every timescale with the local clock's offset.

With saveclock it also moves the system clock by that offset, which
requires privileges.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			servIP, saveClock, err := parseGTClockArgs(args)
			if err != nil {
				return err
			}
			raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(servIP.String(), strconv.Itoa(port)))
			if err != nil {
				return err
			}
			conn, err := net.DialUDP("udp", nil, raddr)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			m, dest, err := getTime(conn, timeout)
			if err != nil {
				return err
			}

			if saveClock {
				offset, _ := getParams(m, dest)
				if err := setSystemClock(offset); err != nil {
					return fmt.Errorf("saveclock: %w", err)
				}
			}
			return printNTP(cmd.OutOrStdout(), m, dest)
		},
	}
	c.Flags().IntVarP(&port, "port", "p", 123, "server UDP port")
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "wait for the reply")
	return c
}
