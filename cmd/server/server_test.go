package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"pkt.systems/pslog"
)

const testTimeout = 10 * time.Second

func startTestServer(t *testing.T) apiv1.BuildRunnerClient {
	t.Helper()

	// Unix socket paths are length limited, so keep the directory short.
	dir, err := os.MkdirTemp("", "brn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	cfg.Server.Listen = "unix://" + filepath.Join(dir, "brn.sock")
	cfg.Runner.BaseDir = filepath.Join(dir, "runs")
	cfg.Tasks = []task.Task{
		{Name: "greet", Description: "Say hello", Command: "sh", Args: []string{"-c", `echo "hello $WHO"`}, Env: []string{"WHO=world"}},
		{Name: "fail", Command: "sh", Args: []string{"-c", "echo broken 1>&2; exit 4"}},
		{Name: "sleep", Command: "sleep", Args: []string{"30"}},
	}

	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel})
	ctx, cancel := context.WithCancel(pslog.ContextWithLogger(context.Background(), logger))

	srv, err := NewGRPCServer(ctx, cfg)
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	conn, err := apiv1.Dial(cfg.Server.Listen, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(testTimeout):
			t.Errorf("server did not shut down")
		}
		_, statErr := os.Stat(filepath.Join(dir, "brn.sock"))
		assert.True(t, errors.Is(statErr, os.ErrNotExist), "socket must be removed on shutdown")
	})
	return apiv1.NewBuildRunnerClient(conn)
}

// watch collects a Watch stream into the transcript and the exit event.
func watch(t *testing.T, ctx context.Context, client apiv1.BuildRunnerClient, runID string) (string, *apiv1.ExitStatus) {
	t.Helper()
	stream, err := client.Watch(ctx, &apiv1.WatchRequest{RunID: runID})
	require.NoError(t, err)

	var out strings.Builder
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			t.Fatalf("stream ended without exit event")
		}
		require.NoError(t, err)
		switch ev.Type {
		case apiv1.EventTypeOutput:
			out.Write(ev.Data)
		case apiv1.EventTypeExit:
			require.NotNil(t, ev.Exit)
			_, err := stream.Recv()
			require.ErrorIs(t, err, io.EOF)
			return out.String(), ev.Exit
		}
	}
}

func TestRoundTripTask(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	resp, err := client.Start(ctx, &apiv1.StartRequest{Task: "greet"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	assert.Equal(t, apiv1.RunStateRunning, resp.Status.GetState())
	assert.Equal(t, "greet", resp.Status.Command.Task)

	out, exit := watch(t, ctx, client, resp.RunID)
	assert.Equal(t, "hello world\n", out)
	assert.Equal(t, int32(0), exit.Code)
	assert.Empty(t, exit.Error)

	st, err := client.Status(ctx, &apiv1.StatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, apiv1.RunStateIdle, st.Status.GetState())
	assert.Equal(t, resp.RunID, st.Status.RunID)
	require.NotNil(t, st.Status.GetExit())
	require.NotNil(t, st.Status.EndTime)

	// A late watcher gets the same transcript replayed.
	out, _ = watch(t, ctx, client, "")
	assert.Equal(t, "hello world\n", out)
}

func TestRoundTripFailure(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	resp, err := client.Start(ctx, &apiv1.StartRequest{Task: "fail"})
	require.NoError(t, err)

	out, exit := watch(t, ctx, client, resp.RunID)
	assert.Equal(t, "broken\n", out)
	assert.Equal(t, int32(4), exit.Code)
	assert.Contains(t, exit.Error, lib.ErrAbnormalExit.Error())
}

func TestRoundTripCommandAndStop(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	resp, err := client.Start(ctx, &apiv1.StartRequest{Command: "sh", Args: []string{"-c", "echo ready; sleep 30"}})
	require.NoError(t, err)

	_, err = client.Start(ctx, &apiv1.StartRequest{Task: "greet"})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.ErrorIs(t, apiv1.FromStatusError(err), lib.ErrAlreadyRunning)

	stream, err := client.Watch(ctx, &apiv1.WatchRequest{RunID: resp.RunID})
	require.NoError(t, err)
	ev, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, apiv1.EventTypeOutput, ev.Type)
	assert.Equal(t, "ready\n", string(ev.Data))

	stopResp, err := client.Stop(ctx, &apiv1.StopRequest{RunID: resp.RunID})
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, stopResp.Status.RunID)

	for {
		ev, err = stream.Recv()
		require.NoError(t, err)
		if ev.Type == apiv1.EventTypeExit {
			break
		}
	}
	assert.True(t, ev.Exit.Stopped)
	assert.Equal(t, "terminated", ev.Exit.Signal)

	_, err = client.Stop(ctx, &apiv1.StopRequest{})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.ErrorIs(t, apiv1.FromStatusError(err), lib.ErrNotRunning)
}

func TestRoundTripErrors(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	stream, err := client.Watch(ctx, &apiv1.WatchRequest{})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Start(ctx, &apiv1.StartRequest{Task: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.ErrorIs(t, apiv1.FromStatusError(err), lib.ErrUnknownTask)

	_, err = client.Start(ctx, &apiv1.StartRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Start(ctx, &apiv1.StartRequest{Task: "greet", Command: "echo"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Start(ctx, &apiv1.StartRequest{Command: "/nonexistent/tool"})
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.ErrorIs(t, apiv1.FromStatusError(err), lib.ErrLaunchFailure)

	st, err := client.Status(ctx, &apiv1.StatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, apiv1.RunStateIdle, st.Status.GetState())

	stream, err = client.Watch(ctx, &apiv1.WatchRequest{RunID: "00000000-0000-0000-0000-000000000000"})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListTasks(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	resp, err := client.ListTasks(ctx, &apiv1.ListTasksRequest{})
	require.NoError(t, err)
	names := make([]string, 0, len(resp.Tasks))
	for _, tk := range resp.Tasks {
		names = append(names, tk.Name)
	}
	assert.Equal(t, []string{"fail", "greet", "sleep"}, names)
	assert.Equal(t, "Say hello", resp.Tasks[1].Description)
}

func TestShutdownStopsRunningBuild(t *testing.T) {
	dir, err := os.MkdirTemp("", "brn")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	cfg.Server.Listen = "unix://" + filepath.Join(dir, "brn.sock")

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := NewGRPCServer(ctx, cfg)
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	conn, err := apiv1.Dial(cfg.Server.Listen, nil)
	require.NoError(t, err)
	defer conn.Close()
	client := apiv1.NewBuildRunnerClient(conn)

	callCtx, callCancel := context.WithTimeout(context.Background(), testTimeout)
	defer callCancel()
	resp, err := client.Start(callCtx, &apiv1.StartRequest{Command: "sleep", Args: []string{"30"}})
	require.NoError(t, err)

	stream, err := client.Watch(callCtx, &apiv1.WatchRequest{RunID: resp.RunID})
	require.NoError(t, err)

	cancel()

	var exit *apiv1.ExitStatus
	for exit == nil {
		ev, err := stream.Recv()
		require.NoError(t, err)
		exit = ev.Exit
	}
	assert.True(t, exit.Stopped)

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatalf("server did not shut down")
	}
}

func TestResolveCommand(t *testing.T) {
	tasks, err := task.NewCatalogue([]task.Task{{Name: "b", Command: "make", Args: []string{"all"}, Dir: "/src", Env: []string{"A=1"}}})
	require.NoError(t, err)

	cmd, err := resolveCommand(tasks, &apiv1.StartRequest{Task: "b", Args: []string{"-j4"}, Env: []string{"B=2"}})
	require.NoError(t, err)
	assert.Equal(t, "make", cmd.Command)
	assert.Equal(t, []string{"all", "-j4"}, cmd.Args)
	assert.Equal(t, []string{"A=1", "B=2"}, cmd.Env)
	assert.Equal(t, "/src", cmd.Dir)
	assert.Equal(t, "b", cmd.Task)

	cmd, err = resolveCommand(tasks, &apiv1.StartRequest{Command: "echo", Args: []string{"x"}, Dir: "/tmp"})
	require.NoError(t, err)
	assert.Equal(t, lib.Command{Command: "echo", Args: []string{"x"}, Dir: "/tmp"}, cmd)
}

func TestStartAfterCloseIsRefused(t *testing.T) {
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	cfg.Runner.BaseDir = t.TempDir()
	s, err := NewBuildRunnerServer(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	_, err = s.Start(context.Background(), &apiv1.StartRequest{Command: "true"})
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.ErrorIs(t, apiv1.FromStatusError(err), lib.ErrRunnerClosed)
}
