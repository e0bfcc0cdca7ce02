// Package task holds the catalogue of named build commands a runner may start.
package task

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"go.trai.ch/zerr"
)

// Task is a named, preconfigured build command.
type Task struct {
	Name        string   `mapstructure:"name" yaml:"name"`
	Description string   `mapstructure:"description" yaml:"description,omitempty"`
	Command     string   `mapstructure:"command" yaml:"command"`
	Args        []string `mapstructure:"args" yaml:"args,omitempty"`
	Dir         string   `mapstructure:"dir" yaml:"dir,omitempty"`
	Env         []string `mapstructure:"env" yaml:"env,omitempty"`
}

// RunnerCommand converts t into a runner command. Environment values and the
// working directory have $VAR references expanded against the process
// environment; unknown variables are left as written.
func (t Task) RunnerCommand() lib.Command {
	env := make([]string, 0, len(t.Env))
	for _, kv := range t.Env {
		key, value, _ := strings.Cut(kv, "=")
		env = append(env, key+"="+ExpandEnv(value))
	}
	return lib.Command{
		Command: t.Command,
		Args:    append([]string(nil), t.Args...),
		Dir:     ExpandEnv(t.Dir),
		Env:     env,
		Task:    t.Name,
	}
}

// Validate checks a single task definition.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return zerr.New("task name is required")
	}
	if strings.ContainsAny(t.Name, " \t\n") {
		return zerr.With(zerr.New("task name must not contain whitespace"), "task", t.Name)
	}
	if strings.TrimSpace(t.Command) == "" {
		return zerr.With(zerr.Wrap(lib.ErrCommandRequired, "invalid task"), "task", t.Name)
	}
	for _, kv := range t.Env {
		if key, _, ok := strings.Cut(kv, "="); !ok || key == "" {
			return zerr.With(zerr.New("task env entries must be KEY=VALUE"), "task", t.Name)
		}
	}
	return nil
}

// Catalogue is an immutable set of tasks indexed by name.
type Catalogue struct {
	byName map[string]Task
}

// NewCatalogue validates tasks and indexes them. Names must be unique.
func NewCatalogue(tasks []Task) (*Catalogue, error) {
	c := &Catalogue{byName: make(map[string]Task, len(tasks))}
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, zerr.With(err, "index", i)
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, zerr.With(zerr.New("duplicate task name"), "task", t.Name)
		}
		t.Args = append([]string(nil), t.Args...)
		t.Env = append([]string(nil), t.Env...)
		c.byName[t.Name] = t
	}
	return c, nil
}

// Lookup returns the task called name or lib.ErrUnknownTask.
func (c *Catalogue) Lookup(name string) (Task, error) {
	if c != nil {
		if t, ok := c.byName[name]; ok {
			return t, nil
		}
	}
	return Task{}, zerr.With(zerr.Wrap(lib.ErrUnknownTask, fmt.Sprintf("task %q", name)), "task", name)
}

// Resolve looks up name and returns its command with extraArgs appended.
func (c *Catalogue) Resolve(name string, extraArgs ...string) (lib.Command, error) {
	t, err := c.Lookup(name)
	if err != nil {
		return lib.Command{}, err
	}
	cmd := t.RunnerCommand()
	cmd.Args = append(cmd.Args, extraArgs...)
	return cmd, nil
}

// List returns all tasks sorted by name.
func (c *Catalogue) List() []Task {
	if c == nil {
		return nil
	}
	out := make([]Task, 0, len(c.byName))
	for _, t := range c.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of tasks.
func (c *Catalogue) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byName)
}

// ExpandEnv replaces $VAR and ${VAR} with values from the environment. $UID
// and $GID resolve even when unset; other unknown variables stay as written.
func ExpandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}
