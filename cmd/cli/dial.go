package main

import (
	"crypto/tls"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// dial connects to the daemon named by --addr or the config file.
func dial(opts *rootOptions) (*grpc.ClientConn, apiv1.BuildRunnerClient, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, err
	}
	addr := cfg.ClientAddress()
	if opts.addr != "" {
		addr = opts.addr
	}

	var tlsConfig *tls.Config
	if cfg.Client.TLS.Enabled() {
		tlsConfig, err = apiv1.ClientTLSConfig(cfg.Client.TLS.CertFile, cfg.Client.TLS.KeyFile, cfg.Client.TLS.CAFile)
		if err != nil {
			return nil, nil, err
		}
	}

	conn, err := apiv1.Dial(addr, tlsConfig)
	if err != nil {
		return nil, nil, err
	}
	return conn, apiv1.NewBuildRunnerClient(conn), nil
}

func grpcCode(err error) codes.Code {
	st, ok := status.FromError(err)
	if !ok {
		return codes.Unknown
	}
	return st.Code()
}

// clientError turns daemon errors into runner errors, with a hint when the
// daemon is not reachable.
func clientError(err error) error {
	if grpcCode(err) == codes.Unavailable {
		return &hintError{err: err, hint: "is brn-server running? check --addr or client.address"}
	}
	return apiv1.FromStatusError(err)
}

type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() + " (" + e.hint + ")" }

func (e *hintError) Unwrap() error { return e.err }
