package devicelogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lsscdOutput = "Slot 0\r\ndev_name     = LDO2\r\nfusion_id    = HL001_00000_121530000074\r\nmodbus_adr   = 1\r\nlocation     = \"tank\"\r\n" +
	"Slot 4\ndev_name = 4-20mA (in)\nfusion_id = HL002_00101_2009C1207274\nmodbus_adr = 2\nlocation = \"\"\n" +
	"Slot 18\ndev_name = ModbusTCP\nfusion_id = HL003_00000_000000000018\nmodbus_adr = 3\nlocation = \"\"\n" +
	"Slot 19\ndev_name = Prognosys\nfusion_id = HL003_00000_000000000019\nmodbus_adr = 4\nlocation = \"\"\n" +
	"Slot 20\ndev_name = RTC-P\nfusion_id = HL004_00000_000009999119\nmodbus_adr = 5\nlocation = \"\"\n" +
	"Slot 7\ndev_name = NT3100sc\nfusion_id = HL005_00000_000000007777\nmodbus_adr = 6\nlocation = \"pool\"\n"

func TestParseSlots(t *testing.T) {
	want := []Slot{
		{Number: "0", DeviceName: "LDO2", Serial: "121530000074"},
		{Number: "4", DeviceName: "4_20mA_in", Serial: "2009C1207274"},
		{Number: "20", DeviceName: "RTC_P", Serial: "000009999119"},
		{Number: "7", DeviceName: "NT3100sc", Serial: "000000007777"},
	}
	if diff := cmp.Diff(want, ParseSlots(lsscdOutput)); diff != "" {
		t.Errorf("ParseSlots mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDate(t *testing.T) {
	date, ok := parseDate("               Local time: Tue 2024-03-05 14:07:59 CET\n           Universal time: Tue 2024-03-05 13:07:59 UTC\n")
	require.True(t, ok)
	assert.Equal(t, "20240305_1407", date)

	_, ok = parseDate("Failed to query server")
	assert.False(t, ok)
}

type commandRunner struct {
	calls []string
}

func (r *commandRunner) Run(name string, args ...string) error {
	_, err := r.Output(name, args...)
	return err
}

func (r *commandRunner) Output(name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	switch name {
	case "lsscd":
		return []byte(lsscdOutput), nil
	case "timedatectl":
		return []byte("Local time: Tue 2024-03-05 14:07:59 CET\n"), nil
	}
	return nil, nil
}

func TestExport(t *testing.T) {
	dest := t.TempDir()
	pidev := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pidev, "pump"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pidev, "pump", "settings_HL004_00000_pump.csv"), []byte("a;b\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pidev, "pump", "notes.txt"), []byte("x"), 0644))

	r := &commandRunner{}
	syncs := 0
	e := &Exporter{Runner: r, Sync: func() { syncs++ }, PidevPath: pidev, LoggerDir: "/unused"}
	require.NoError(t, e.Export(dest))

	ldo := filepath.Join(dest, "LDO2_121530000074")
	nt := filepath.Join(dest, "NT3100sc_000000007777")
	want := []string{
		"lsscd",
		"timedatectl",
		"TestClientII -Lrd0 -Y2 -h0",
		"TestClientII -Lpr -Y2 -h0 -z" + filepath.Join(ldo, "LDO2_121530000074_Data_log_20240305_1407.csv"),
		"TestClientII -Lrd0 -Y1 -h0",
		"TestClientII -Lpr -Y1 -h0 -z" + filepath.Join(ldo, "LDO2_121530000074_Event_log_20240305_1407.csv"),
		"TestClientII -Lrd0 -Y2 -h4",
		"TestClientII -Lpr -Y2 -h4 -z" + filepath.Join(dest, "4_20mA_in_2009C1207274", "4_20mA_in_2009C1207274_Data_log_20240305_1407.csv"),
		"TestClientII -Lrd0 -Y1 -h4",
		"TestClientII -Lpr -Y1 -h4 -z" + filepath.Join(dest, "4_20mA_in_2009C1207274", "4_20mA_in_2009C1207274_Event_log_20240305_1407.csv"),
		"TestClientII -Lrd0 -Y2 -h7",
		"TestClientII -Lpr -Y2 -h7 -z" + filepath.Join(nt, "NT3100sc_000000007777_Data_log_20240305_1407.csv"),
		"TestClientII -Lrd0 -Y1 -h7",
		"TestClientII -Lpr -Y1 -h7 -z" + filepath.Join(nt, "NT3100sc_000000007777_Event_log_20240305_1407.csv"),
		"TestClientII -h7 -f24 -z " + filepath.Join(nt, "NT3100sc_000000007777_service_logger_20240305_1407") + " -p",
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, syncs)

	copied, err := os.ReadFile(filepath.Join(dest, "RTC_P_000009999119", "settings_000009999119_pump_20240305_1407.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(copied))
}

func TestExportWithoutLoggerFile(t *testing.T) {
	r := &commandRunner{}
	e := &Exporter{Runner: r, PidevPath: t.TempDir()}
	require.NoError(t, e.Export(t.TempDir()))
	for _, c := range r.calls {
		assert.NotContains(t, c, "-f24")
	}
}
