package runner

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/output_storage"
	"pkt.systems/pslog"
)

const (
	DefaultStopGrace = 5 * time.Second
	DefaultWaitDelay = 5 * time.Second
)

// Listener consumes run events. Calls are made on the dispatcher's thread,
// output chunks in the order the child produced them, followed by exactly
// one OnExit per started run.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Listener interface {
	OnOutput(runID string, chunk []byte)
	OnExit(runID string, status lib.ExitStatus)
}

// StartListener is implemented by listeners that want a callback when a run
// has been launched. It is dispatched before any output of that run.
type StartListener interface {
	OnStart(runID string, command lib.Command)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Start  func(runID string, command lib.Command)
	Output func(runID string, chunk []byte)
	Exit   func(runID string, status lib.ExitStatus)
}

func (f ListenerFuncs) OnStart(runID string, command lib.Command) {
	if f.Start != nil {
		f.Start(runID, command)
	}
}

func (f ListenerFuncs) OnOutput(runID string, chunk []byte) {
	if f.Output != nil {
		f.Output(runID, chunk)
	}
}

func (f ListenerFuncs) OnExit(runID string, status lib.ExitStatus) {
	if f.Exit != nil {
		f.Exit(runID, status)
	}
}

// Config controls a Runner. The zero value is usable.
type Config struct {
	Listener Listener
	// Dispatcher delivers listener callbacks. Nil starts a private EventLoop
	// that is closed with the runner.
	Dispatcher Dispatcher
	Logger     pslog.Logger
	// BaseDir holds per-run working directories for commands without Dir.
	// Empty creates a temporary directory.
	BaseDir string
	// Env is appended to the inherited environment of every run.
	Env []string
	// StopGrace is the time between SIGTERM and SIGKILL on Stop. Zero kills immediately.
	StopGrace time.Duration
	// WaitDelay bounds how long output pipes are drained after the process exits.
	WaitDelay time.Duration
	Limits    Limits
}

// Runner owns at most one child process at a time and relays its combined
// output and exit to a Listener.
type Runner struct {
	mu      sync.Mutex
	current *run // active run, nil while idle
	last    *run // most recent run, active or finished
	closed  bool

	listener   Listener
	dispatcher Dispatcher
	ownLoop    *EventLoop
	logger     pslog.Logger

	baseDir    string
	ownBaseDir bool
	env        []string
	stopGrace  time.Duration
	waitDelay  time.Duration
	limits     Limits
}

type run struct {
	id      string
	command lib.Command
	cmd     *exec.Cmd
	workDir string
	tempDir bool
	pid     int
	start   time.Time
	output  *output_storage.OutputStorage
	// cgroup is set when the run was placed in its own cgroup under limitsRoot.
	cgroup     bool
	limitsRoot string
	// done is closed right after the listener received OnExit.
	done chan struct{}

	mu sync.RWMutex
	// reaped is set once the process has been waited for; its group is
	// no longer signalled after that.
	reaped        bool
	end           *time.Time
	exit          *lib.ExitStatus
	stopRequested bool
	killTimer     *time.Timer
}

// NewRunner creates a new Runner.
func NewRunner(cfg Config) (*Runner, error) {
	r := &Runner{
		listener:   cfg.Listener,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
		baseDir:    cfg.BaseDir,
		env:        append([]string(nil), cfg.Env...),
		stopGrace:  cfg.StopGrace,
		waitDelay:  cfg.WaitDelay,
		limits:     cfg.Limits,
	}
	if r.listener == nil {
		r.listener = ListenerFuncs{}
	}
	if r.logger == nil {
		r.logger = pslog.Ctx(context.Background())
	}
	if r.stopGrace < 0 {
		r.stopGrace = 0
	}
	if r.waitDelay <= 0 {
		r.waitDelay = DefaultWaitDelay
	}
	if r.baseDir == "" {
		baseDir, err := os.MkdirTemp("", "brn-*")
		if err != nil {
			return nil, err
		}
		r.baseDir = baseDir
		r.ownBaseDir = true
	} else if err := os.MkdirAll(r.baseDir, 0o700); err != nil {
		return nil, err
	}
	if r.dispatcher == nil {
		r.ownLoop = NewEventLoop()
		r.dispatcher = r.ownLoop
	}
	return r, nil
}

// dispatch runs fn on the consumer thread, or inline once the dispatcher is closed.
func (r *Runner) dispatch(fn func()) {
	if !r.dispatcher.Dispatch(fn) {
		fn()
	}
}

// Close kills an active process, waits until its exit was delivered and
// releases the runner's resources. Later starts fail with lib.ErrRunnerClosed.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	active := r.current
	r.mu.Unlock()

	if active != nil {
		r.logger.Info("runner close: killing active run", "run_id", active.id)
		active.mu.Lock()
		active.stopRequested = true
		active.mu.Unlock()
		active.kill(r.logger)
		select {
		case <-active.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if r.ownLoop != nil {
		r.ownLoop.Close()
		select {
		case <-r.ownLoop.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.ownBaseDir {
		_ = os.RemoveAll(r.baseDir)
	}
	return nil
}
