package sharenet

import (
	"bytes"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/ini.v1"
)

// loadNetworkFile parses a systemd-networkd unit file. Keys such as Address
// may repeat, and key names keep their case.
func loadNetworkFile(path string) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		AllowShadows:        true,
		IgnoreInlineComment: true,
	}, path)
}

// saveNetworkFile writes f back as Key=Value lines.
func saveNetworkFile(f *ini.File, path string) error {
	ini.PrettyFormat = false
	ini.PrettyEqual = false
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return renameio.WriteFile(path, buf.Bytes(), mode)
}

// setKey gives name the single value v, dropping any repeated entries.
func setKey(section *ini.Section, name, v string) {
	if section.HasKey(name) && len(section.Key(name).ValueWithShadows()) > 1 {
		section.DeleteKey(name)
	}
	section.Key(name).SetValue(v)
}
