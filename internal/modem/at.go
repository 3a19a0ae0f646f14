package modem

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

const DefaultSerialPort = "/dev/ttyACM0"

var (
	ErrATEmptyCommand  = errors.New("command to send is empty")
	ErrATNoAnswer      = errors.New("no answer from modem")
	ErrATBadAnswer     = errors.New("bad answer from modem")
	ErrATDaemonRunning = errors.New("ofonod owns the serial port")
)

type ATError struct {
	Cause error
	Cmd   string
}

func (e *ATError) Error() string {
	return fmt.Sprintf("failed to run AT command '%s' because %s", strings.TrimSpace(e.Cmd), e.Cause)
}

func (e *ATError) Unwrap() error { return e.Cause }

// SerialDialer opens the modem AT port. Opening it while ofono runs steals
// the port from ofono.
type SerialDialer interface {
	Dial(readTimeout time.Duration) (io.ReadWriteCloser, error)
}

type PortDialer struct {
	PortName string
	Mode     *serial.Mode
}

func NewPortDialer(name string) *PortDialer {
	return &PortDialer{
		PortName: name,
		Mode: &serial.Mode{
			BaudRate: 115200,
			DataBits: 7,
			Parity:   serial.OddParity,
			StopBits: serial.TwoStopBits,
		},
	}
}

func (d *PortDialer) Dial(readTimeout time.Duration) (io.ReadWriteCloser, error) {
	port, err := serial.Open(d.PortName, d.Mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.PortName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// ATClient sends single AT commands to the modem.
type ATClient struct {
	Dialer SerialDialer
	Sleep  func(time.Duration)
}

func NewATClient(dialer SerialDialer) *ATClient {
	return &ATClient{Dialer: dialer, Sleep: time.Sleep}
}

// Send writes cmd and collects the answer until the port stays silent for
// readTimeout.
func (c *ATClient) Send(cmd string, readTimeout time.Duration) (string, error) {
	if cmd == "" {
		return "", &ATError{Cause: ErrATEmptyCommand}
	}
	port, err := c.Dialer.Dial(readTimeout)
	if err != nil {
		return "", &ATError{Cmd: cmd, Cause: err}
	}
	defer port.Close()

	if _, err := port.Write([]byte(cmd)); err != nil {
		return "", &ATError{Cmd: cmd, Cause: err}
	}
	var answer strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		answer.Write(buf[:n])
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return answer.String(), &ATError{Cmd: cmd, Cause: err}
		}
	}
	return answer.String(), nil
}

// IsReady asks for the firmware version; any answer with OK will do.
func (c *ATClient) IsReady() (bool, string) {
	answer, err := c.Send("AT+CGMR\r", time.Second)
	if err != nil {
		return false, err.Error()
	}
	if !strings.Contains(answer, "OK") {
		return false, "Modem is frozen or answered wrongly"
	}
	return true, "Modem is ready for AT commands"
}

// FactoryReset loads the full manufacturer profile.
func (c *ATClient) FactoryReset() error {
	answer, err := c.Send("AT&F1\r", 2*time.Second)
	switch {
	case err != nil:
		return err
	case answer == "":
		return &ATError{Cmd: "AT&F1", Cause: ErrATNoAnswer}
	case !strings.Contains(answer, "OK"):
		return &ATError{Cmd: "AT&F1", Cause: ErrATBadAnswer}
	}
	log.Info("Factory configuration applied")
	return nil
}

// IsNorthAmerica reports whether the modem knows the firmware switch command,
// which only North America models do.
func (c *ATClient) IsNorthAmerica() bool {
	answer, err := c.Send("AT#FWSWITCH?\r\n", time.Second)
	return err == nil && strings.Contains(answer, "OK")
}

var diagnosticCommands = []struct{ name, cmd string }{
	{"Set Echo", "ATE1\r"},
	{"Set Verbose", "AT+CMEE=2\r"},
	{"Model", "AT+CGMM\r"},
	{"Serial", "AT+CGSN\r"},
	{"Version", "AT+CGMR\r"},
	{"Mode of operation", "AT+CEMODE?\r"},
	{"Phone Functionality", "AT+CFUN?\r"},
	{"SIM PIN status", "AT+CPIN?\r"},
	{"IMSI", "AT+CIMI\r"},
	{"GPRS Attachment state", "AT+CGATT?\r"},
	{"Network registration", "AT+CREG?\r"},
	{"GPRS Network Registration", "AT+CGREG?\r"},
	{"LTE Network Registration", "AT+CEREG?\r"},
	{"Operator", "AT+COPS?\r"},
	{"Signal", "AT+CSQ\r"},
}

// LogDiagnostics logs the answers to a fixed set of status commands. It does
// nothing while ofonod runs.
func (c *ATClient) LogDiagnostics(processes ProcessChecker) error {
	log.Info("-Collect modem diagnostic information")
	if running, _ := processes.IsRunning(daemonProcess); running {
		log.Warn("Cannot collect modem information as ofonod process is running")
		return ErrATDaemonRunning
	}

	ready, msg := retryPolicy(5, time.Second, c.Sleep).Run(c.IsReady)
	log.Info(msg)
	if !ready {
		return &ATError{Cmd: "AT+CGMR", Cause: ErrATBadAnswer}
	}
	for _, d := range diagnosticCommands {
		// Local commands answer in about 30ms.
		answer, err := c.Send(d.cmd, 500*time.Millisecond)
		if err != nil {
			log.Infof("%s: %v", d.name, err)
			continue
		}
		log.Infof("%s: %s", d.name, answer)
	}
	return nil
}
