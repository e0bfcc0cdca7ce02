package runner

import (
	"testing"
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/runner/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type mockListener struct {
	*mocks.MockListener
	*mocks.MockStartListener
}

func TestListenerCallSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockListener(ctrl)
	starts := mocks.NewMockStartListener(ctrl)

	r, _ := newTestRunner(t, Config{Listener: mockListener{events, starts}})

	var runID string
	exited := make(chan struct{})
	gomock.InOrder(
		starts.EXPECT().OnStart(gomock.Any(), gomock.Any()).Do(func(id string, command lib.Command) {
			runID = id
			assert.Equal(t, "sh -c printf built", command.String())
		}),
		events.EXPECT().OnOutput(gomock.Any(), []byte("built")).Do(func(id string, _ []byte) {
			assert.Equal(t, runID, id)
		}),
		events.EXPECT().OnExit(gomock.Any(), gomock.Any()).Do(func(id string, status lib.ExitStatus) {
			assert.Equal(t, runID, id)
			assert.True(t, status.Success())
			close(exited)
		}),
	)

	res, err := r.Start("sh", "-c", "printf built")
	require.NoError(t, err)

	select {
	case <-exited:
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for exit")
	}
	assert.Equal(t, res.ID, runID)
}

func TestLaunchFailureMakesNoCallbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockListener(ctrl)
	starts := mocks.NewMockStartListener(ctrl)

	r, _ := newTestRunner(t, Config{Listener: mockListener{events, starts}})

	_, err := r.Start("/nonexistent/brn-test-binary")
	require.ErrorIs(t, err, lib.ErrLaunchFailure)
	assert.False(t, r.Running())
}
