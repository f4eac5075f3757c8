package grpc

import (
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type cleanupFunc func()

// NewClientConn opens a plaintext connection to addr. The returned cleanup
// closes it.
func NewClientConn(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, cleanupFunc, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		log.Println("gRpc client connection failed.", err)
		return nil, nil, err
	}

	log.Printf("gRpc client connection to %s established.\n", addr)
	return conn, func() { conn.Close() }, nil
}
