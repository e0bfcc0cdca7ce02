//go:build linux

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only as root with cgroup v2 mounted.
func TestCgroupLimits(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("Skipping: not running as root")
	}
	if _, err := os.Stat("/sys/fs/cgroup/cgroup.controllers"); err != nil {
		t.Skip("Skipping: cgroup v2 not available")
	}

	root := filepath.Join("/sys/fs/cgroup", fmt.Sprintf("brn-test-%d", os.Getpid()))
	t.Cleanup(func() { _ = os.Remove(root) })

	limits := Limits{
		Enabled:    true,
		Root:       root,
		CPUWeight:  50,
		MemoryHigh: 512 * 1024 * 1024,
	}
	r, rec := newTestRunner(t, Config{Limits: limits})

	res, err := r.Start("sh", "-c", "sleep 60")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, res.ID, "cgroup.procs"))

	procs, err := os.ReadFile(filepath.Join(root, res.ID, "cgroup.procs"))
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(string(procs)), fmt.Sprint(res.Status.PID))

	if controllerEnabled(root, "cpu") {
		weight, err := os.ReadFile(filepath.Join(root, res.ID, "cpu.weight"))
		require.NoError(t, err)
		assert.Equal(t, "50", strings.TrimSpace(string(weight)))
	}
	if controllerEnabled(root, "memory") {
		high, err := os.ReadFile(filepath.Join(root, res.ID, "memory.high"))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(limits.MemoryHigh), strings.TrimSpace(string(high)))
	}

	require.NoError(t, r.Stop())
	ev := rec.waitExit(t)
	assert.True(t, ev.status.Stopped)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	_, err = r.Wait(ctx, res.ID)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, res.ID))
}

func TestProcAttrWithoutLimits(t *testing.T) {
	attr, err := procAttr("run", Limits{})
	require.NoError(t, err)
	defer attr.Release()

	assert.True(t, attr.Raw.Setpgid)
	assert.False(t, attr.cgroup)
	assert.False(t, attr.Raw.UseCgroupFD)
}

func TestReadControllerSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgroup.subtree_control")
	require.NoError(t, os.WriteFile(path, []byte("+cpu memory\n"), 0o644))

	set, err := readControllerSet(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"cpu": true, "memory": true}, set)

}
