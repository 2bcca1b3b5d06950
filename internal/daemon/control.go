package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Status returns the pid of the running watcher, or nil when none is
// running. A PID file pointing at a dead process is stale and is removed.
func Status(pidFile string) (*int, error) {
	pid, err := ReadPIDFile(pidFile)
	if err != nil {
		return nil, err
	}
	if pid == nil {
		return nil, nil
	}
	if !processRunning(*pid) {
		if err := RemovePIDFile(pidFile); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return pid, nil
}

// Stop terminates the running watcher with SIGTERM and removes its PID
// file. It reports whether a live process was actually signalled.
func Stop(pidFile string) (bool, error) {
	pid, err := ReadPIDFile(pidFile)
	if err != nil {
		return false, err
	}
	if pid == nil {
		return false, nil
	}

	if !processRunning(*pid) {
		if err := RemovePIDFile(pidFile); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := syscall.Kill(*pid, syscall.SIGTERM); err != nil {
		return false, fmt.Errorf("signal watcher: %w", err)
	}
	if err := RemovePIDFile(pidFile); err != nil {
		return false, err
	}
	return true, nil
}

// Start re-executes the current binary as a detached watcher process with
// its stderr redirected to the log file. The child writes its own PID file
// once it is up.
func Start(logFile string, args ...string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}

	logSink, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open watcher log: %w", err)
	}
	defer logSink.Close()

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = logSink
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn watcher: %w", err)
	}

	pid := cmd.Process.Pid
	// Detach: the watcher outlives this CLI invocation.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release watcher process: %w", err)
	}
	return pid, nil
}
