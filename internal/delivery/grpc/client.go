package grpc

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"google.golang.org/grpc"
)

// Client calls BookingService over a connection that speaks the json codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// CallOptions selects the json codec for every call on a connection.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(codecName)}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(CallOptions(), opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) JoinQueue(ctx context.Context, in *JoinQueueRequest, opts ...grpc.CallOption) (*service.JoinQueueOutput, error) {
	return invoke[service.JoinQueueOutput](ctx, c.cc, "JoinQueue", in, opts)
}

func (c *Client) QueueStatus(ctx context.Context, in *QueueStatusRequest, opts ...grpc.CallOption) (*service.QueueStatusOutput, error) {
	return invoke[service.QueueStatusOutput](ctx, c.cc, "QueueStatus", in, opts)
}

func (c *Client) QueueStats(ctx context.Context, in *QueueStatsRequest, opts ...grpc.CallOption) (*service.QueueStatsOutput, error) {
	return invoke[service.QueueStatsOutput](ctx, c.cc, "QueueStats", in, opts)
}

func (c *Client) ProcessQueue(ctx context.Context, in *ProcessQueueRequest, opts ...grpc.CallOption) (*ProcessQueueResponse, error) {
	return invoke[ProcessQueueResponse](ctx, c.cc, "ProcessQueue", in, opts)
}

func (c *Client) LeaveQueue(ctx context.Context, in *LeaveQueueRequest, opts ...grpc.CallOption) (*LeaveQueueResponse, error) {
	return invoke[LeaveQueueResponse](ctx, c.cc, "LeaveQueue", in, opts)
}

func (c *Client) BookSeat(ctx context.Context, in *BookSeatRequest, opts ...grpc.CallOption) (*service.BookSeatOutput, error) {
	return invoke[service.BookSeatOutput](ctx, c.cc, "BookSeat", in, opts)
}

func (c *Client) SeatStatus(ctx context.Context, in *SeatStatusRequest, opts ...grpc.CallOption) (*service.SeatStatusOutput, error) {
	return invoke[service.SeatStatusOutput](ctx, c.cc, "SeatStatus", in, opts)
}
