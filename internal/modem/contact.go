package modem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	ProtocolTCP  = "tcp"
	ProtocolSNTP = "sntp"

	defaultContactTimeout = 5 * time.Second
	sntpPacketSize        = 48
)

// Endpoint is a server used to prove Internet access.
type Endpoint struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Protocol string `mapstructure:"protocol"`
}

var DefaultEndpoints = []Endpoint{
	{Host: "storefsngeneral.blob.core.windows.net", Port: 443, Protocol: ProtocolTCP},
	{Host: "pool.ntp.org", Port: 123, Protocol: ProtocolSNTP},
}

type Reacher interface {
	Reach(e Endpoint) error
}

// Contacter reaches endpoints through one network interface only, so a
// working Ethernet link cannot hide a broken cellular or Wi-Fi one.
type Contacter struct {
	Interface string
	Timeout   time.Duration
}

func NewContacter(iface string) *Contacter {
	return &Contacter{Interface: iface, Timeout: defaultContactTimeout}
}

func (c *Contacter) dialer() *net.Dialer {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultContactTimeout
	}
	return &net.Dialer{
		Timeout: timeout,
		Control: func(network, address string, raw syscall.RawConn) error {
			if c.Interface == "" {
				return nil
			}
			var serr error
			err := raw.Control(func(fd uintptr) {
				serr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, c.Interface)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
}

func (c *Contacter) Reach(e Endpoint) error {
	address := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	d := c.dialer()
	switch e.Protocol {
	case ProtocolTCP, "":
		conn, err := d.Dial("tcp", address)
		if err != nil {
			return err
		}
		return conn.Close()
	case ProtocolSNTP:
		return c.sntp(d, address)
	default:
		return fmt.Errorf("unsupported protocol %q", e.Protocol)
	}
}

// sntp sends a client request and waits for a server reply.
func (c *Contacter) sntp(d *net.Dialer, address string) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()
	conn, err := d.DialContext(ctx, "udp", address)
	if err != nil {
		return err
	}
	defer conn.Close()
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	req := make([]byte, sntpPacketSize)
	req[0] = 0x1b // LI 0, version 3, client mode
	if _, err := conn.Write(req); err != nil {
		return err
	}
	resp := make([]byte, sntpPacketSize)
	n, err := conn.Read(resp)
	if err != nil {
		return err
	}
	if n < sntpPacketSize || resp[0]&0x07 != 4 {
		return errors.New("invalid SNTP reply")
	}
	return nil
}
