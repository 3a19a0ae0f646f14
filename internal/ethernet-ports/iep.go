package ethernetports

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

const (
	testClient = "TestClientII"
	iepSlot    = "11"

	fcEnablePort2  = 25
	fcDisablePort2 = 20
	// Modbus register 40003.
	regPort2Status = 2
)

var (
	fusionPattern   = regexp.MustCompile(`\bHL001_5325[12]_[0-9a-fA-F]{12}\b`)
	registerPattern = regexp.MustCompile(`reg +[0-9]+ *: *0x([0-9a-fA-F]+)`)

	errRegisterRead  = errors.New("unable to read IEP module port 2 status reg")
	errRegisterWrite = errors.New("unable to write IEP module port 2")
)

// IEPModule is the Profinet or EtherNet/IP extension board in the
// industrial Ethernet slot, driven through TestClientII.
type IEPModule struct {
	Runner system.Runner
}

// Present reports whether a Profinet or EtherNet/IP board answers in the
// slot. A failing query means no board.
func (m *IEPModule) Present() bool {
	out, err := m.Runner.Output(testClient, "-d", "-h"+iepSlot)
	if err != nil {
		log.Debugf("Querying the industrial Ethernet slot: %v", err)
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "fusion_id") && fusionPattern.MatchString(line) {
			return true
		}
	}
	return false
}

// Configure enables the board's second port in IEPOnly mode and disables
// it otherwise, then reads the port status back. It returns the message to
// show the user.
func (m *IEPModule) Configure(mode Mode) (string, error) {
	if !m.Present() {
		return "No IEP module connected", nil
	}

	fc, expected := fcDisablePort2, 0
	if mode == ModeIEPOnly {
		fc, expected = fcEnablePort2, 1
	}
	if err := m.Runner.Run(testClient, "-h"+iepSlot, "-F"+strconv.Itoa(fc)); err != nil {
		return "", fmt.Errorf("sending configuration to IEP module: %w", err)
	}

	out, err := m.Runner.Output(testClient, "-h"+iepSlot, "-p", "-x"+strconv.Itoa(regPort2Status))
	if err != nil {
		return "", fmt.Errorf("sending configuration to IEP module: %w", err)
	}
	value, err := registerValue(string(out))
	if err != nil {
		return "", err
	}
	if value != expected {
		return "", errRegisterWrite
	}
	return "Configuration sent to IEP module", nil
}

func registerValue(out string) (int, error) {
	out = strings.ReplaceAll(out, "\n", "")
	match := registerPattern.FindStringSubmatch(out)
	if strings.Contains(out, "failed with") || match == nil {
		return 0, errRegisterRead
	}
	v, err := strconv.ParseInt(match[1], 16, 64)
	if err != nil {
		return 0, errRegisterRead
	}
	return int(v), nil
}
