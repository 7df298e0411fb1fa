package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/rs/zerolog"
)

const (
	exitGrace  = 2 * time.Second
	drainGrace = 200 * time.Millisecond
)

// Launcher starts an engine subprocess and talks to it over stdin/stdout.
type Launcher struct {
	Command string
	Args    []string
	Logger  zerolog.Logger
}

// Launch starts the engine command in its own process group. The process
// and anything it spawns are owned by the returned target and terminated by
// its Close.
func (l Launcher) Launch(ctx context.Context) (target.Target, error) {
	bin, err := exec.LookPath(l.Command)
	if err != nil {
		return nil, fmt.Errorf("engine command %q not found: %w", l.Command, err)
	}

	// The pipes are created here rather than with StdinPipe/StdoutPipe so
	// that Wait never closes the ends the client is still using.
	var files []*os.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}
	newPipe := func() (*os.File, *os.File, error) {
		r, w, err := os.Pipe()
		if err == nil {
			files = append(files, r, w)
		}
		return r, w, err
	}
	stdinR, stdinW, err := newPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := newPipe()
	if err != nil {
		closeFiles()
		return nil, fmt.Errorf("engine stdout pipe: %w", err)
	}
	stderrR, stderrW, err := newPipe()
	if err != nil {
		closeFiles()
		return nil, fmt.Errorf("engine stderr pipe: %w", err)
	}

	cmd := exec.Command(bin, l.Args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdinR, stdoutW, stderrW
	cmd.WaitDelay = exitGrace
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		closeFiles()
		return nil, fmt.Errorf("starting engine: %w", err)
	}
	// The child holds its own copies.
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()

	log := logging.WithComponent(l.Logger, "engine").With().Int("pid", cmd.Process.Pid).Logger()
	log.Debug().Str("command", bin).Strs("args", l.Args).Msg("engine started")

	p := &process{
		cmd:     cmd,
		log:     log,
		stdout:  stdoutR,
		stderr:  stderrR,
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	go p.drain()
	go p.wait()

	client := NewClient(stdoutR, stdinW, l.Logger)
	client.onClose = p.stop
	return client, nil
}

type process struct {
	cmd     *exec.Cmd
	log     zerolog.Logger
	stdout  *os.File
	stderr  *os.File
	exited  chan struct{}
	drained chan struct{}
	err     error
}

func (p *process) drain() {
	defer close(p.drained)
	sc := bufio.NewScanner(p.stderr)
	for sc.Scan() {
		p.log.Debug().Msg(sc.Text())
	}
}

func (p *process) wait() {
	p.err = p.cmd.Wait()
	close(p.exited)
}

// stop gives the engine a grace period to exit after its stdin closes,
// then kills its process group. Children left behind in the group are
// killed either way.
func (p *process) stop() error {
	select {
	case <-p.exited:
	case <-time.After(exitGrace):
		p.log.Debug().Msg("engine did not exit, killing")
		if err := killProcessGroup(p.cmd); err != nil {
			p.log.Debug().Err(err).Msg("killing engine")
		}
		<-p.exited
	}
	killProcessGroup(p.cmd)

	select {
	case <-p.drained:
	case <-time.After(drainGrace):
		p.log.Debug().Msg("engine stderr still open, closing")
	}
	p.stderr.Close()
	p.stdout.Close()
	<-p.drained

	var exitErr *exec.ExitError
	if p.err != nil && !errors.As(p.err, &exitErr) {
		return fmt.Errorf("waiting for engine: %w", p.err)
	}
	p.log.Debug().Msg("engine stopped")
	return nil
}
