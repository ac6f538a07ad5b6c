package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts buffered process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// streamRunner abstracts line-streamed process execution. Implementations
// deliver each stdout line to onLine as it arrives and return once the
// process exits; onLine runs on the goroutine reading the pipe.
type streamRunner interface {
	RunStream(ctx context.Context, onLine func(string), name string, args ...string) error
}

// execRunner executes commands via os/exec, capturing output.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// execStreamRunner executes commands via os/exec with a piped stdout.
type execStreamRunner struct{}

// RunStream starts the command, scans stdout line by line into onLine,
// and waits for exit. Cancelling ctx kills the process.
func (r *execStreamRunner) RunStream(ctx context.Context, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	waitErr := cmd.Wait()
	if scanErr := scanner.Err(); waitErr == nil && scanErr != nil {
		return scanErr
	}
	return waitErr
}
