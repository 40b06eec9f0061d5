package ospath

import (
	"os"
)

func init() {
	userLogsDir = os.Getenv("LOCALAPPDATA")
}
