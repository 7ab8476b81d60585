package service

import (
	"os"
	"strings"
)

const cpuinfoPath = "/proc/cpuinfo"

// ResolveDeviceID returns a stable identifier for this machine. On the
// Raspberry Pi class devices this runs on, the CPU serial from /proc/cpuinfo
// is unique per board; elsewhere the hostname has to do.
func ResolveDeviceID() string {
	if serial := cpuSerial(cpuinfoPath); serial != "" {
		return serial
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown-device"
	}
	return host
}

func cpuSerial(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "Serial") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if serial := strings.TrimSpace(parts[1]); serial != "" {
			return serial
		}
	}
	return ""
}
