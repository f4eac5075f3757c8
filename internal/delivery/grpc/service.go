package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/util"
	resp "github.com/vogiaan1904/ticketbottle-booking/pkg/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const ServiceName = "booking.v1.BookingService"

type BookingServiceServer interface {
	JoinQueue(ctx context.Context, req *JoinQueueRequest) (*service.JoinQueueOutput, error)
	QueueStatus(ctx context.Context, req *QueueStatusRequest) (*service.QueueStatusOutput, error)
	QueueStats(ctx context.Context, req *QueueStatsRequest) (*service.QueueStatsOutput, error)
	ProcessQueue(ctx context.Context, req *ProcessQueueRequest) (*ProcessQueueResponse, error)
	LeaveQueue(ctx context.Context, req *LeaveQueueRequest) (*LeaveQueueResponse, error)
	BookSeat(ctx context.Context, req *BookSeatRequest) (*service.BookSeatOutput, error)
	SeatStatus(ctx context.Context, req *SeatStatusRequest) (*service.SeatStatusOutput, error)
}

type grpcService struct {
	queueSvc   service.QueueService
	bookingSvc service.BookingService
	processor  service.QueueProcessor
	l          logger.Logger
}

func NewGrpcService(
	queueSvc service.QueueService,
	bookingSvc service.BookingService,
	processor service.QueueProcessor,
	l logger.Logger,
) BookingServiceServer {
	return &grpcService{
		queueSvc:   queueSvc,
		bookingSvc: bookingSvc,
		processor:  processor,
		l:          l,
	}
}

func (s *grpcService) JoinQueue(ctx context.Context, req *JoinQueueRequest) (*service.JoinQueueOutput, error) {
	out, err := s.queueSvc.Join(ctx, req.UserID)
	if err != nil {
		return nil, s.fail(ctx, "JoinQueue", err)
	}

	return &out, nil
}

func (s *grpcService) QueueStatus(ctx context.Context, req *QueueStatusRequest) (*service.QueueStatusOutput, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, resp.ParseGRPCError(errInvalidArgument)
	}

	out, err := s.queueSvc.Status(ctx, req.Token)
	if err != nil {
		return nil, s.fail(ctx, "QueueStatus", err)
	}

	return &out, nil
}

func (s *grpcService) QueueStats(ctx context.Context, _ *QueueStatsRequest) (*service.QueueStatsOutput, error) {
	out, err := s.queueSvc.Stats(ctx)
	if err != nil {
		return nil, s.fail(ctx, "QueueStats", err)
	}

	return &out, nil
}

func (s *grpcService) ProcessQueue(ctx context.Context, req *ProcessQueueRequest) (*ProcessQueueResponse, error) {
	n, err := s.processor.ProcessQueue(ctx, req.BatchSize)
	if err != nil {
		return nil, s.fail(ctx, "ProcessQueue", err)
	}

	stats, err := s.queueSvc.Stats(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ProcessQueue", err)
	}

	return &ProcessQueueResponse{
		Admitted:    n,
		Stats:       stats,
		ProcessedAt: util.TimeToISO8601Str(s.processor.GetStatus().LastProcessed),
	}, nil
}

func (s *grpcService) LeaveQueue(ctx context.Context, req *LeaveQueueRequest) (*LeaveQueueResponse, error) {
	if err := s.queueSvc.Remove(ctx, req.UserID, kafka.LeftReasonRemoved); err != nil {
		return nil, s.fail(ctx, "LeaveQueue", err)
	}

	return &LeaveQueueResponse{
		UserID:  req.UserID,
		Message: "Queue left successfully",
	}, nil
}

func (s *grpcService) BookSeat(ctx context.Context, req *BookSeatRequest) (*service.BookSeatOutput, error) {
	if strings.TrimSpace(req.SeatNumber) == "" {
		return nil, resp.ParseGRPCError(errInvalidArgument)
	}

	out, err := s.bookingSvc.BookSeat(context.WithoutCancel(ctx), service.BookSeatInput{
		SeatNumber: req.SeatNumber,
		UserID:     req.UserID,
	})
	if err != nil {
		return nil, s.fail(ctx, "BookSeat", err)
	}

	return out, nil
}

func (s *grpcService) SeatStatus(ctx context.Context, req *SeatStatusRequest) (*service.SeatStatusOutput, error) {
	out, err := s.bookingSvc.SeatStatus(ctx, req.SeatNumber)
	if err != nil {
		return nil, s.fail(ctx, "SeatStatus", err)
	}

	return out, nil
}

func (s *grpcService) fail(ctx context.Context, method string, err error) error {
	s.l.Debug(ctx, "gRPC call failed", "method", method, "error", err.Error())
	return resp.ParseGRPCError(mapGRPCError(err))
}

func unary[Req, Resp any](name string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*Req))
			})
		},
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("JoinQueue", BookingServiceServer.JoinQueue),
		unary("QueueStatus", BookingServiceServer.QueueStatus),
		unary("QueueStats", BookingServiceServer.QueueStats),
		unary("ProcessQueue", BookingServiceServer.ProcessQueue),
		unary("LeaveQueue", BookingServiceServer.LeaveQueue),
		unary("BookSeat", BookingServiceServer.BookSeat),
		unary("SeatStatus", BookingServiceServer.SeatStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

// LoggingInterceptor logs one line per unary call with its outcome.
func LoggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = l.WithFields(ctx, "grpc_method", info.FullMethod)

		res, err := handler(ctx, req)

		l.Info(ctx, "gRPC request",
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return res, err
	}
}
