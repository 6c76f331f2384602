package planner

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvZone returns the IANA name of the environment's time zone: $TZ when it
// names a loadable zone, else the target of /etc/localtime, else "UTC".
func EnvZone() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			name := target[i+len("zoneinfo/"):]
			if _, err := time.LoadLocation(name); err == nil {
				return name
			}
		}
	}
	return "UTC"
}
