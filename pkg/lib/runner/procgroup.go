//go:build unix

package runner

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
	"pkt.systems/pslog"
)

// sysProcAttr carries the attributes for one run and any resource that must
// be released once the child has been started.
type sysProcAttr struct {
	Raw     *syscall.SysProcAttr
	release func()
	cgroup  bool
}

func (a *sysProcAttr) Release() {
	if a != nil && a.release != nil {
		a.release()
		a.release = nil
	}
}

func groupAttr() *syscall.SysProcAttr {
	// New process group so the build and its children are signalled as a unit.
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the process group led by pid. A group that is already
// gone is not an error: its exit is about to be observed by the waiter.
func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return errors.New("invalid process id")
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (r *run) isReaped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reaped
}

func (r *run) terminate(logger pslog.Logger) {
	if r.isReaped() {
		return
	}
	if err := signalGroup(r.pid, unix.SIGTERM); err != nil {
		logger.Warn("runner terminate failed", "run_id", r.id, "pid", r.pid, "err", err)
	}
}

func (r *run) kill(logger pslog.Logger) {
	if r.isReaped() {
		return
	}
	if r.cgroup {
		if ok, err := killCgroup(r.limitsRoot, r.id); ok {
			return
		} else if err != nil {
			logger.Debug("runner cgroup kill failed, falling back to group kill", "run_id", r.id, "err", err)
		}
	}
	if err := signalGroup(r.pid, unix.SIGKILL); err != nil {
		logger.Warn("runner kill failed", "run_id", r.id, "pid", r.pid, "err", err)
	}
}
