package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SanjoDeundiak/build-runner/pkg/lib/logx"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := logx.FromEnv(os.Stderr, "warn", false)
	ctx = pslog.ContextWithLogger(ctx, logger)
	logx.RedirectStdLog(logger)

	root := NewRootCmd()
	root.SetArgs(os.Args[1:])
	return exitCode(root.ExecuteContext(ctx), os.Stderr)
}

// exitCode reports err on stderr and returns the process exit code. A failed
// build is mirrored with its own exit code.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintln(stderr, err)
	var buildErr *buildExitError
	if errors.As(err, &buildErr) {
		return buildErr.ExitCode()
	}
	return 1
}
