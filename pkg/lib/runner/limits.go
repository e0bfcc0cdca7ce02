package runner

// DefaultCgroupRoot is where per-run cgroups are created when limits are enabled.
const DefaultCgroupRoot = "/sys/fs/cgroup/brn"

// Limits describes resource limits applied to each run through cgroup v2.
// They take effect on Linux when the runner has root privileges; elsewhere
// runs only get their own process group.
type Limits struct {
	Enabled bool
	Root    string
	// CPUWeight is written to cpu.weight (1-10000). Zero leaves the default.
	CPUWeight int
	// MemoryHigh is written to memory.high in bytes. Zero leaves it unlimited.
	MemoryHigh int64
	// IOWeight is written to io.weight (1-10000). Zero leaves the default.
	IOWeight int
}

func (l Limits) root() string {
	if l.Root == "" {
		return DefaultCgroupRoot
	}
	return l.Root
}
