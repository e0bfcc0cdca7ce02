package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"pkt.systems/pslog"
)

const shutdownTimeout = 15 * time.Second

// GRPCServer owns the listener, the gRPC server and the service behind it.
type GRPCServer struct {
	lis        net.Listener
	s          *grpc.Server
	service    *BuildRunnerServer
	socketPath string
	logger     pslog.Logger
}

// NewGRPCServer listens on cfg.Server.Listen. Unix sockets are created with
// owner-only permissions; TCP listeners use mutual TLS when configured.
func NewGRPCServer(ctx context.Context, cfg config.Config) (*GRPCServer, error) {
	logger := pslog.Ctx(ctx)
	network, address, err := config.SplitAddress(cfg.Server.Listen)
	if err != nil {
		return nil, err
	}

	var opts []grpc.ServerOption
	if network == "tcp" && cfg.Server.TLS.Enabled() {
		tlsConfig, err := apiv1.ServerTLSConfig(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile, cfg.Server.TLS.CAFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	} else if network == "tcp" {
		logger.Warn("server tcp listener without tls", "addr", address)
	}
	opts = append(opts,
		grpc.ChainUnaryInterceptor(callerUnaryInterceptor(logger)),
		grpc.ChainStreamInterceptor(callerStreamInterceptor(logger)),
	)

	service, err := NewBuildRunnerServer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create service server: %w", err)
	}

	socketPath := ""
	if network == "unix" {
		socketPath = address
		if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
			_ = service.Close(context.Background())
			return nil, err
		}
		_ = os.Remove(socketPath)
	}

	lis, err := net.Listen(network, address)
	if err != nil {
		_ = service.Close(context.Background())
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	if socketPath != "" {
		if err := os.Chmod(socketPath, 0o600); err != nil {
			_ = lis.Close()
			_ = service.Close(context.Background())
			return nil, err
		}
	}

	s := grpc.NewServer(opts...)
	apiv1.RegisterBuildRunnerServer(s, service)

	return &GRPCServer{lis: lis, s: s, service: service, socketPath: socketPath, logger: logger}, nil
}

// Serve serves until ctx is cancelled, then stops the running build and shuts down.
func (g *GRPCServer) Serve(ctx context.Context) error {
	g.logger.Info("server listening", "addr", g.Addr().String(), "network", g.Addr().Network())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := g.s.Serve(g.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		g.shutdown()
		return nil
	})
	return eg.Wait()
}

func (g *GRPCServer) shutdown() {
	g.logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Closing the runner ends the active build, which completes open Watch streams.
	if err := g.service.Close(ctx); err != nil {
		g.logger.Warn("server runner close failed", "err", err)
	}

	stopped := make(chan struct{})
	go func() {
		g.s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		g.logger.Warn("server graceful stop timed out")
		g.s.Stop()
	}
	if g.socketPath != "" {
		_ = os.Remove(g.socketPath)
	}
}

// Addr returns the network address the server is bound to.
func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }
