package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/maunavault/internal/logging"
	pb "github.com/dmitrijs2005/maunavault/internal/proto"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
	"github.com/dmitrijs2005/maunavault/internal/server/services"
	"google.golang.org/grpc"
)

type userService interface {
	SignUp(ctx context.Context, email, credential string) (*services.AuthResult, error)
	SignIn(ctx context.Context, email, credential string) (*services.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetSession(ctx context.Context, userID string) (*models.User, error)
	UpdateCredential(ctx context.Context, userID, current, next string) error
	SignOut(ctx context.Context, userID, refreshToken string) error
}

type recordService interface {
	Get(ctx context.Context, userID string) (*models.Record, error)
	Insert(ctx context.Context, rec *models.Record) (*models.Record, error)
	Update(ctx context.Context, userID string, u models.RecordUpdate) (*models.Record, error)
	Delete(ctx context.Context, userID string) error
}

type GRPCServer struct {
	pb.UnimplementedVaultServiceServer
	address   string
	users     userService
	records   recordService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us userService, rs recordService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		records:   rs,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a grpc.Server with the vault service and its
// interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	pb.RegisterVaultServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
