package manual

import (
	"io"

	v1 "github.com/emrgen/manual/apis/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Client interface {
	io.Closer
	v1.ManualServiceClient
}

type client struct {
	conn *grpc.ClientConn
	v1.ManualServiceClient
}

// NewClient connects to the manual grpc server at addr, e.g. ":4020".
func NewClient(addr string, opts ...grpc.DialOption) (Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &client{
		conn:                conn,
		ManualServiceClient: v1.NewManualServiceClient(conn),
	}, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}
