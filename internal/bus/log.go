package bus

import "github.com/TheCacophonyProject/netsupervisor/internal/logging"

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) { log = l }
