// Package usb detects allow-listed USB devices with lsusb.
package usb

import (
	"fmt"

	"github.com/TheCacophonyProject/netsupervisor/internal/system"
)

type Device struct {
	Name string
	// VidPid is the "vendor:product" id passed to lsusb -d.
	VidPid string
}

// Modems lists the supported cellular modems. The Telit product id changes
// with the USB configuration (0x0035 ACM only, 0x0036 ACM+NCM, 0x0037 with
// suspend), all three are the same hardware.
var Modems = []Device{
	{Name: "Multitech/Telit", VidPid: "1bc7:0035"},
	{Name: "Multitech/Telit", VidPid: "1bc7:0036"},
	{Name: "Multitech/Telit", VidPid: "1bc7:0037"},
}

// WiFiDongles lists the supported Wi-Fi USB dongles.
var WiFiDongles = []Device{
	{Name: "Realtek RTL8811AU", VidPid: "0bda:a811"},
}

type Lister struct {
	Runner system.Runner
}

func NewLister() Lister {
	return Lister{Runner: system.ExecRunner{}}
}

// Present returns the devices of the list that lsusb can see. lsusb exits 1
// when a device is absent; any other failure stops the enumeration and is
// returned along with the devices found so far.
func (l Lister) Present(devices []Device) ([]Device, error) {
	var found []Device
	for _, d := range devices {
		err := l.Runner.Run("lsusb", "-d", d.VidPid)
		if err == nil {
			found = append(found, d)
			continue
		}
		if system.ExitCode(err) >= 0 {
			continue
		}
		return found, fmt.Errorf("failed to look up USB device %s: %w", d.VidPid, err)
	}
	return found, nil
}
