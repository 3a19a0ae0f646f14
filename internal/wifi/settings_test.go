package wifi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enabledSettings = "[global]\nOfflineMode=false\n\n[WiFi]\nEnable=true\nTethering=false\n"

func writeSettings(t *testing.T, m *Manager, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(m.ConnmanDir, "settings"), []byte(content), 0600))
}

func TestEnabledStatus(t *testing.T) {
	tests := []struct {
		name     string
		settings *string
		want     EnabledStatus
	}{
		{"missing file", nil, StatusError},
		{"enabled", strPtr(enabledSettings), StatusEnabled},
		{"disabled", strPtr("[WiFi]\nEnable=false\n"), StatusDisabled},
		{"no section", strPtr("[global]\nOfflineMode=false\n"), StatusDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t)
			if tt.settings != nil {
				writeSettings(t, m, *tt.settings)
			}
			assert.Equal(t, tt.want, m.EnabledStatus())
		})
	}
}

func strPtr(s string) *string { return &s }

func TestDisableViaConfigFileHidesService(t *testing.T) {
	m, _, _ := newTestManager(t)
	writeSettings(t, m, enabledSettings)
	touch(t, filepath.Join(m.ConnmanDir, officeConfig))
	require.NoError(t, os.Mkdir(filepath.Join(m.ConnmanDir, "wifi_001122334455_6f6666696365_managed_psk"), 0700))

	require.NoError(t, m.DisableViaConfigFile())

	assert.Equal(t, StatusDisabled, m.EnabledStatus())
	data, err := os.ReadFile(filepath.Join(m.ConnmanDir, "settings"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Enable=false")
	assert.Contains(t, string(data), "OfflineMode=false")
	assert.Equal(t, []string{
		"_wifi_001122334455_6f6666696365.config_",
		"_wifi_001122334455_6f6666696365_managed_psk_",
		"settings",
	}, entries(t, m.ConnmanDir))
}

func TestDisableViaConfigFileWithoutSection(t *testing.T) {
	m, _, _ := newTestManager(t)
	writeSettings(t, m, "[global]\nOfflineMode=false\n")
	touch(t, filepath.Join(m.ConnmanDir, officeConfig))

	require.NoError(t, m.DisableViaConfigFile())
	assert.Equal(t, []string{"settings", officeConfig}, entries(t, m.ConnmanDir))
}

func TestDisableViaConfigFileWithoutEnableKey(t *testing.T) {
	m, _, _ := newTestManager(t)
	writeSettings(t, m, "[WiFi]\nTethering=false\n")
	assert.Error(t, m.DisableViaConfigFile())
}

func TestEnableWiFiRestoresHiddenEntries(t *testing.T) {
	m, _, c := newTestManager(t)
	touch(t, filepath.Join(m.ConnmanDir, "_wifi_001122334455_6f6666696365.config_"))
	require.NoError(t, os.Mkdir(filepath.Join(m.ConnmanDir, "_wifi_001122334455_6f6666696365_managed_psk_"), 0700))

	require.NoError(t, m.EnableWiFi(true))
	assert.Equal(t, []bool{true}, c.powered)
	assert.Equal(t, []string{
		officeConfig,
		"wifi_001122334455_6f6666696365_managed_psk",
	}, entries(t, m.ConnmanDir))
}

func TestEnableWiFiAlreadyEnabled(t *testing.T) {
	m, _, c := newTestManager(t)
	c.powerErr = errors.New("Already enabled")
	touch(t, filepath.Join(m.ConnmanDir, "_wifi_001122334455_6f6666696365.config_"))

	assert.Error(t, m.EnableWiFi(true))
	assert.Equal(t, []string{officeConfig}, entries(t, m.ConnmanDir))
}

func TestDisableWiFiKeepsEntries(t *testing.T) {
	m, _, c := newTestManager(t)
	touch(t, filepath.Join(m.ConnmanDir, "_wifi_001122334455_6f6666696365.config_"))

	require.NoError(t, m.EnableWiFi(false))
	assert.Equal(t, []bool{false}, c.powered)
	assert.Equal(t, []string{"_wifi_001122334455_6f6666696365.config_"}, entries(t, m.ConnmanDir))
}
