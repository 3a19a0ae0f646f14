package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	configwifi "github.com/TheCacophonyProject/netsupervisor/internal/config-wifi"
	"github.com/TheCacophonyProject/netsupervisor/internal/modem"
	"github.com/TheCacophonyProject/netsupervisor/internal/wifi"
)

func TestExitCodeIsDiagnosticCode(t *testing.T) {
	for _, code := range []modem.DiagnosticCode{modem.ModemAbsent, modem.SeveralModemsPresent, modem.DaemonNotRunning} {
		got, ok := exitCode(fmt.Errorf("config-modem: %w", &modem.ExitError{Code: code}))
		assert.True(t, ok)
		assert.Equal(t, int(code), got)
	}
	got, _ := exitCode(&modem.ExitError{Code: modem.SwitchFirmwareFailed})
	assert.Equal(t, 70, got)
}

func TestExitCodeConnectError(t *testing.T) {
	for _, code := range []wifi.ConnectionError{wifi.ErrorUnknown, wifi.ErrorInvalidKey, wifi.ErrorAuthentication} {
		got, ok := exitCode(&configwifi.ConnectError{Code: code, Err: errors.New("connect failed")})
		assert.True(t, ok)
		assert.Equal(t, 1, got)
	}
}

func TestPlainErrorsHaveNoExitCode(t *testing.T) {
	_, ok := exitCode(errors.New("failed to parse args"))
	assert.False(t, ok)
}

func TestEveryToolIsListed(t *testing.T) {
	assert.Len(t, toolNames(), len(tools))
	assert.Equal(t, "cellular-supervisor", toolNames()[0])
}
