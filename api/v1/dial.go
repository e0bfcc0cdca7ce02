package apiv1

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial connects to a daemon at addr (unix:///path or host:port). Unix sockets
// use insecure transport credentials; TCP uses tlsConfig when set.
func Dial(addr string, tlsConfig *tls.Config) (*grpc.ClientConn, error) {
	network, address, err := config.SplitAddress(addr)
	if err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	target := address
	switch {
	case network == "unix":
		dialer := func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", addr)
		}
		target = "passthrough:///" + address
		opts = append(opts,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithContextDialer(dialer),
		)
	case tlsConfig != nil:
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	default:
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	return grpc.NewClient(target, opts...)
}
