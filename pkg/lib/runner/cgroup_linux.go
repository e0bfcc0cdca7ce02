//go:build linux

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	cgroupInitMu   sync.Mutex
	cgroupInitDone = map[string]error{}
)

// initCgroups enables the cpu, io and memory controllers below root. Work
// happens once per root; later calls return the first result.
func initCgroups(root string) error {
	cgroupInitMu.Lock()
	defer cgroupInitMu.Unlock()
	if err, ok := cgroupInitDone[root]; ok {
		return err
	}
	err := initCgroupsImpl(root)
	cgroupInitDone[root] = err
	return err
}

func initCgroupsImpl(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	available, err := readControllerSet(filepath.Join(root, "cgroup.controllers"))
	if err != nil {
		return err
	}
	enabled, err := readControllerSet(filepath.Join(root, "cgroup.subtree_control"))
	if err != nil {
		return err
	}

	var toAdd []string
	for _, ctrl := range []string{"cpu", "io", "memory"} {
		if available[ctrl] && !enabled[ctrl] {
			toAdd = append(toAdd, "+"+ctrl)
		}
	}
	if len(toAdd) == 0 {
		return nil
	}
	return writeString(filepath.Join(root, "cgroup.subtree_control"), strings.Join(toAdd, " "))
}

func readControllerSet(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, f := range strings.Fields(string(data)) {
		set[strings.TrimPrefix(f, "+")] = true
	}
	return set, nil
}

// procAttr returns the attributes for run id. With limits enabled and root
// privileges the child is started directly inside a fresh cgroup.
func procAttr(id string, limits Limits) (*sysProcAttr, error) {
	if !limits.Enabled || os.Geteuid() != 0 {
		return &sysProcAttr{Raw: groupAttr()}, nil
	}

	root := limits.root()
	if err := initCgroups(root); err != nil {
		return nil, fmt.Errorf("init cgroups: %w", err)
	}

	cgPath, err := setupCgroupFor(root, id, limits)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(cgPath, unix.O_DIRECTORY|unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		_ = os.Remove(cgPath)
		return nil, fmt.Errorf("open cgroup %s: %w", cgPath, err)
	}

	raw := groupAttr()
	raw.UseCgroupFD = true
	raw.CgroupFD = fd
	return &sysProcAttr{
		Raw:     raw,
		release: func() { _ = unix.Close(fd) },
		cgroup:  true,
	}, nil
}

func setupCgroupFor(root, id string, limits Limits) (string, error) {
	processRoot := filepath.Join(root, id)
	if err := os.MkdirAll(processRoot, 0o755); err != nil {
		return "", err
	}

	if limits.CPUWeight > 0 && controllerEnabled(root, "cpu") {
		if err := writeString(filepath.Join(processRoot, "cpu.weight"), fmt.Sprint(limits.CPUWeight)); err != nil {
			return "", err
		}
	}
	if limits.IOWeight > 0 && controllerEnabled(root, "io") {
		if err := writeString(filepath.Join(processRoot, "io.weight"), fmt.Sprint(limits.IOWeight)); err != nil {
			return "", err
		}
	}
	if limits.MemoryHigh > 0 && controllerEnabled(root, "memory") {
		if err := writeString(filepath.Join(processRoot, "memory.high"), fmt.Sprint(limits.MemoryHigh)); err != nil {
			return "", err
		}
	}

	return processRoot, nil
}

func controllerEnabled(root, controller string) bool {
	enabled, err := readControllerSet(filepath.Join(root, "cgroup.subtree_control"))
	if err != nil {
		return false
	}
	return enabled[controller]
}

// killCgroup kills every process in the run's cgroup, including ones that
// left the process group.
func killCgroup(root, id string) (bool, error) {
	err := writeString(filepath.Join(root, id, "cgroup.kill"), "1")
	return err == nil, err
}

func cleanupCgroup(root, id string) error {
	return os.Remove(filepath.Join(root, id))
}

func writeString(path, val string) error {
	return os.WriteFile(path, []byte(val), 0o644)
}
