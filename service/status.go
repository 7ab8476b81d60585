package service

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const defaultStatusFileName = ".alert_clipper_status"

// RunState is the coarse state of the daily processing run, shared with
// operators through a small file in the home directory.
type RunState string

const (
	StateEmpty      RunState = "EMPTY"      // No run in progress
	StateProcessing RunState = "PROCESSING" // A run is working through alerts
	StateFinished   RunState = "FINISHED"   // The run for the recorded date completed
)

// RunStatus is the parsed content of the status file
type RunStatus struct {
	State     RunState
	Date      string // Processed date (YYYY-MM-DD), empty for EMPTY state
	Processed int
	Total     int
}

// StatusFile reads and writes the run status file
type StatusFile struct {
	path string
}

// NewStatusFile creates a status file handle. An empty path places the file
// in the user's home directory.
func NewStatusFile(path string) *StatusFile {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, defaultStatusFileName)
	}
	return &StatusFile{path: path}
}

// Read returns the current run status. A missing or unreadable file counts
// as EMPTY so a fresh deployment starts processing immediately.
func (s *StatusFile) Read() (RunStatus, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return RunStatus{State: StateEmpty}, nil
	}
	if err != nil {
		return RunStatus{State: StateEmpty}, fmt.Errorf("failed to read status file %s: %v", s.path, err)
	}

	status, ok := parseStatus(strings.TrimSpace(string(data)))
	if !ok {
		log.Printf("Status: unparseable status file %s, treating as empty", s.path)
		return RunStatus{State: StateEmpty}, nil
	}
	return status, nil
}

func parseStatus(line string) (RunStatus, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return RunStatus{}, false
	}

	state := RunState(fields[0])
	switch state {
	case StateEmpty:
		return RunStatus{State: StateEmpty}, true
	case StateProcessing, StateFinished:
	default:
		return RunStatus{}, false
	}

	status := RunStatus{State: state}
	if len(fields) > 1 {
		status.Date = fields[1]
	}
	if len(fields) > 2 {
		if _, err := fmt.Sscanf(fields[2], "%d/%d", &status.Processed, &status.Total); err != nil {
			return RunStatus{}, false
		}
	}
	return status, true
}

// Write replaces the status file content
func (s *StatusFile) Write(status RunStatus) error {
	var line string
	if status.State == StateEmpty {
		line = string(StateEmpty) + "\n"
	} else {
		line = fmt.Sprintf("%s %s %d/%d\n", status.State, status.Date, status.Processed, status.Total)
	}
	if err := os.WriteFile(s.path, []byte(line), 0644); err != nil {
		return fmt.Errorf("failed to write status file %s: %v", s.path, err)
	}
	return nil
}

// Reset marks the status file as EMPTY
func (s *StatusFile) Reset() error {
	return s.Write(RunStatus{State: StateEmpty})
}
