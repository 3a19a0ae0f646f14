package stats

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

const DefaultFailureCounterPath = "/tmp/cellular_data_supervisor_failure_counter"

// FailureCounter counts failed diagnostics since boot. It lives in /tmp so a
// reboot resets it.
type FailureCounter struct {
	Path string
}

// Get returns the current count, 0 when the file is missing or unreadable.
func (c FailureCounter) Get() int {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return n
}

func (c FailureCounter) Increment() error {
	return renameio.WriteFile(c.Path, []byte(strconv.Itoa(c.Get()+1)), 0644)
}
