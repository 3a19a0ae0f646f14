package wifi

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

// iw exits with 237 (-ENODEV) when the interface does not exist.
const iwNoDevice = 237

var (
	ErrNoDongle = errors.New("no Wi-Fi dongle")
	ErrNoSignal = errors.New("error when trying to get signal strength")

	signalPattern = regexp.MustCompile(`signal: (-\d+) dBm`)
	freqPattern   = regexp.MustCompile(`freq: (\d+)`)
)

// Link returns the output of "iw dev <interface> link".
func (m *Manager) Link() (string, error) {
	out, err := m.Runner.Output("iw", "dev", m.Interface, "link")
	if err != nil {
		if system.ExitCode(err) == iwNoDevice {
			return "", ErrNoDongle
		}
		return "", fmt.Errorf("running iw: %w", err)
	}
	return string(out), nil
}

// RSSI returns the signal of the current link in dBm and the channel
// frequency in MHz.
func (m *Manager) RSSI() (string, string, error) {
	link, err := m.Link()
	if err != nil {
		return "", "", err
	}
	freq := freqPattern.FindStringSubmatch(link)
	signal := signalPattern.FindStringSubmatch(link)
	if freq == nil || signal == nil {
		return "", "", ErrNoSignal
	}
	log.Infof("FREQ = %s MHz", freq[1])
	log.Infof("RSSI = %s dBm", signal[1])
	return signal[1], freq[1], nil
}

// IPv4Address returns the first IPv4 address of the Wi-Fi interface, or ""
// when it has none.
func (m *Manager) IPv4Address() (string, error) {
	iface, err := net.InterfaceByName(m.Interface)
	if err != nil {
		return "", err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", nil
}

// LinkSummary is the Wi-Fi stats line: the iw link report on one line
// followed by whether a reference server answered over Wi-Fi.
func LinkSummary(link string, reachable bool) string {
	info := strings.ReplaceAll(link, "\n", ";")
	if reachable {
		return info + " Internet access: YES;"
	}
	return info + " Internet access: NO;"
}
