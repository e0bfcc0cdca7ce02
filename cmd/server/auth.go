package main

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"pkt.systems/pslog"
)

type callerContextKey struct{}

type loggerContextKey struct{}

func callerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerContextKey{}).(string); ok {
		return v
	}
	return ""
}

func injectCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

func loggerFromContext(ctx context.Context) (pslog.Logger, bool) {
	logger, ok := ctx.Value(loggerContextKey{}).(pslog.Logger)
	return logger, ok && logger != nil
}

// callerFromPeer identifies a TLS client by the trust domain of its SPIFFE
// URI SAN (spiffe://client1 -> "client1"), falling back to the certificate
// common name. Callers without a client certificate are anonymous.
func callerFromPeer(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return ""
	}
	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return ""
	}
	state := ti.State
	if len(state.PeerCertificates) == 0 || state.PeerCertificates[0] == nil {
		return ""
	}
	leaf := state.PeerCertificates[0]
	for _, uri := range leaf.URIs {
		if uri != nil && uri.Scheme == "spiffe" {
			return uri.Host
		}
	}
	return leaf.Subject.CommonName
}

// requestContext attaches the caller identity and a request scoped logger.
func requestContext(ctx context.Context, base pslog.Logger, method string) context.Context {
	caller := callerFromPeer(ctx)
	logger := base.With("method", method)
	if caller != "" {
		logger = logger.With("caller", caller)
	}
	ctx = injectCaller(ctx, caller)
	ctx = context.WithValue(ctx, loggerContextKey{}, logger)
	return pslog.ContextWithLogger(ctx, logger)
}

func callerUnaryInterceptor(base pslog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = requestContext(ctx, base, info.FullMethod)
		pslog.Ctx(ctx).Trace("server request")
		return handler(ctx, req)
	}
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

func callerStreamInterceptor(base pslog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := requestContext(ss.Context(), base, info.FullMethod)
		pslog.Ctx(ctx).Trace("server stream")
		return handler(srv, &streamWithCtx{ServerStream: ss, ctx: ctx})
	}
}

// checkOwnership allows anyone to act on runs started by anonymous callers.
// A run started by an identified TLS client may only be acted on by the same
// client or by local (anonymous) callers on the Unix socket.
func (s *BuildRunnerServer) checkOwnership(ctx context.Context, runID string) error {
	caller := callerFromContext(ctx)
	if caller == "" {
		return nil
	}

	s.mu.Lock()
	owner, ownerRun := s.owner, s.ownerRun
	s.mu.Unlock()

	if ownerRun != runID || owner == "" || owner == caller {
		return nil
	}
	return status.Error(codes.PermissionDenied, "only the client that started the run can stop it")
}
