// Package collector receives trace events over gRPC.
//
// The service has a single unary method, calltrace.v1.Collector/Report,
// taking a google.protobuf.Struct event and returning google.protobuf.Empty.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/calltrace/internal/sink"
)

const (
	ServiceName  = "calltrace.v1.Collector"
	reportMethod = "/" + ServiceName + "/Report"
)

// CollectorServer is the server API of the collector service.
type CollectorServer interface {
	Report(ctx context.Context, ev *structpb.Struct) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CollectorServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Report",
		Handler:    reportHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "calltrace/v1/collector.proto",
}

func reportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectorServer).Report(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: reportMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CollectorServer).Report(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterCollectorServer registers srv on s.
func RegisterCollectorServer(s grpc.ServiceRegistrar, srv CollectorServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Server forwards reported events to a sink.
type Server struct {
	sink   sink.Sink
	logger *slog.Logger
}

func NewServer(s sink.Sink, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sink: s, logger: logger}
}

func (s *Server) Report(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	ev, err := DecodeEvent(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding event: %v", err)
	}
	if err := s.sink.Write(ctx, ev); err != nil {
		s.logger.Error("storing reported event", "session", ev.Session, "err", err)
		return nil, status.Errorf(codes.Internal, "storing event: %v", err)
	}
	s.logger.Debug("event reported", "session", ev.Session, "unit", ev.Unit, "offset", ev.Offset)
	return &emptypb.Empty{}, nil
}

// Serve runs a collector on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, srv CollectorServer) error {
	g := grpc.NewServer()
	RegisterCollectorServer(g, srv)

	errc := make(chan error, 1)
	go func() { errc <- g.Serve(lis) }()

	select {
	case <-ctx.Done():
		g.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}

// Client is a sink.Sink reporting events to a remote collector.
type Client struct {
	conn  *grpc.ClientConn
	owned bool
}

// Dial connects to the collector at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to collector %s: %w", addr, err)
	}
	return &Client{conn: conn, owned: true}, nil
}

// NewClient reports over an existing connection. Close leaves conn open.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Write(ctx context.Context, ev sink.Event) error {
	req, err := EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := c.conn.Invoke(ctx, reportMethod, req, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("reporting event: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.owned {
		return c.conn.Close()
	}
	return nil
}
