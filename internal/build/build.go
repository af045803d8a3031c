// Package build runs the external build tool against the canonical tree.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Invoker runs a build of target with workDir as working directory.
type Invoker interface {
	Invoke(ctx context.Context, workDir, target string) Outcome
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, workDir, target string) Outcome

func (f InvokerFunc) Invoke(ctx context.Context, workDir, target string) Outcome {
	return f(ctx, workDir, target)
}

// Outcome is the result of one build.
type Outcome struct {
	// ExitCode is the build tool's exit status, or -1 if it was killed or
	// never started.
	ExitCode int
	Duration time.Duration
	TimedOut bool
	Canceled bool
	// Err explains a failure that has no exit status of its own.
	Err error
}

// Success reports whether the build tool exited with status 0.
func (o Outcome) Success() bool { return o.ExitCode == 0 && o.Err == nil }

func (o Outcome) String() string {
	switch {
	case o.Success():
		return "success"
	case o.TimedOut:
		return fmt.Sprintf("timed out after %s", o.Duration.Round(time.Millisecond))
	case o.Canceled:
		return "canceled"
	case o.Err != nil:
		return o.Err.Error()
	}
	return fmt.Sprintf("exit status %d", o.ExitCode)
}

// Exec invokes a build command as a child process. The target is appended
// to the command's arguments.
type Exec struct {
	command   []string
	env       []string
	timeout   time.Duration
	waitDelay time.Duration
	stdout    io.Writer
	stderr    io.Writer
}

// ExecOption configures Exec.
type ExecOption func(*Exec)

// WithEnv adds KEY=VALUE pairs to the inherited environment.
func WithEnv(env map[string]string) ExecOption {
	return func(e *Exec) {
		for k, v := range env {
			e.env = append(e.env, k+"="+v)
		}
	}
}

// WithTimeout bounds a single build. Expiry kills the build and is reported
// as a failed Outcome with TimedOut set.
func WithTimeout(d time.Duration) ExecOption {
	return func(e *Exec) {
		e.timeout = d
	}
}

// WithOutput sets where the build tool's output goes. Both default to io.Discard.
func WithOutput(stdout, stderr io.Writer) ExecOption {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewExec returns an Exec running command.
func NewExec(command []string, opts ...ExecOption) (*Exec, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("empty build command")
	}
	e := &Exec{
		command:   append([]string(nil), command...),
		waitDelay: 5 * time.Second,
		stdout:    io.Discard,
		stderr:    io.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check reports whether the build command can be found.
func (e *Exec) Check() error {
	if _, err := exec.LookPath(e.command[0]); err != nil {
		return fmt.Errorf("build command: %w", err)
	}
	return nil
}

// Invoke runs the build and waits for it. Cancellation of ctx, or expiry of
// the configured timeout, kills the build tool's whole process group.
func (e *Exec) Invoke(ctx context.Context, workDir, target string) Outcome {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := e.command[1:]
	if target != "" {
		args = append(append([]string(nil), args...), target)
	}
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.WaitDelay = e.waitDelay
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }

	start := time.Now()
	err := cmd.Run()
	o := Outcome{Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		o.ExitCode = -1
		o.Err = ctx.Err()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.TimedOut = true
		} else {
			o.Canceled = true
		}
	case errors.As(err, &exitErr):
		o.ExitCode = exitErr.ExitCode()
		if o.ExitCode < 0 {
			// Killed by a signal we did not send.
			o.Err = err
		}
	default:
		o.ExitCode = -1
		o.Err = err
	}
	return o
}
