/*
netsupervisor - cellular and Wi-Fi connectivity tools
Copyright (C) 2019, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package modem

import (
	"fmt"
	"time"

	"github.com/TheCacophonyProject/go-config"
)

const SettingsKey = "cellular-supervisor"

// Settings are the device specific values of the cellular tools.
type Settings struct {
	ConfigPath   string        `mapstructure:"config-path"`
	StatePath    string        `mapstructure:"state-path"`
	Interface    string        `mapstructure:"interface"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	Endpoints    []Endpoint    `mapstructure:"endpoints"`
	RebootMethod string        `mapstructure:"reboot-method"`
	SerialPort   string        `mapstructure:"serial-port"`
	PowerPin     string        `mapstructure:"-"`

	// Technologies is applied with ConfigureTechnologyPreference when set.
	Technologies string `mapstructure:"technologies"`
	// AllowRoaming overrides ofono's data roaming default when set.
	AllowRoaming *bool `mapstructure:"allow-roaming"`
}

func DefaultSettings() Settings {
	return Settings{
		ConfigPath:   DefaultConfigPath,
		StatePath:    DefaultStatePath,
		Interface:    CellularInterface,
		RetryDelay:   defaultRetryDelay,
		Endpoints:    DefaultEndpoints,
		RebootMethod: RebootScript,
		SerialPort:   DefaultSerialPort,
	}
}

// LoadSettings reads the cellular section and the modem power pin from the
// device config. Missing values keep their defaults.
func LoadSettings(configDir string) (*Settings, error) {
	conf, err := config.New(configDir)
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	if err := conf.Unmarshal(SettingsKey, &settings); err != nil {
		return nil, err
	}
	if len(settings.Endpoints) == 0 {
		settings.Endpoints = DefaultEndpoints
	}
	if settings.Technologies != "" && !validTechnologies(settings.Technologies) {
		return nil, fmt.Errorf("invalid cellular technologies '%s'", settings.Technologies)
	}
	for _, e := range settings.Endpoints {
		if e.Host == "" || e.Port <= 0 {
			return nil, fmt.Errorf("invalid contact endpoint '%s:%d'", e.Host, e.Port)
		}
	}

	gpio := config.DefaultGPIO()
	if err := conf.Unmarshal(config.GPIOKey, &gpio); err != nil {
		return nil, err
	}
	settings.PowerPin = gpio.ModemPower
	return &settings, nil
}

// validTechnologies accepts the ofono TechnologyPreference values.
func validTechnologies(t string) bool {
	switch t {
	case "any", "gsm", "umts", "lte", "gsm-umts", "gsm-lte", "umts-lte":
		return true
	}
	return false
}
