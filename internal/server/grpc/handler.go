package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/maunavault/internal/common"
	pb "github.com/dmitrijs2005/maunavault/internal/proto"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
	"github.com/dmitrijs2005/maunavault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC status codes. Internal errors
// are logged and hidden from the caller.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, common.ErrVersionConflict.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

// ownerID resolves the user a record call targets. An empty id means the
// caller; any other user is refused.
func (s *GRPCServer) ownerID(ctx context.Context, requested string) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing token")
	}
	if requested != "" && requested != userID {
		return "", status.Error(codes.PermissionDenied, "record belongs to another user")
	}
	return userID, nil
}

func authResponse(r *services.AuthResult) *pb.AuthResponse {
	return &pb.AuthResponse{
		UserID:       r.User.ID,
		Email:        r.User.Email,
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
		ExpiresAt:    r.Tokens.ExpiresAt,
	}
}

func recordToPB(r *models.Record) *pb.Record {
	return &pb.Record{
		UserID:      r.UserID,
		Ciphertext:  r.Ciphertext,
		Salt:        r.Salt,
		KDF:         r.KDF,
		DataVersion: int32(r.DataVersion),
		Version:     r.Version,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *pb.SignUpRequest) (*pb.AuthResponse, error) {

	result, err := s.users.SignUp(ctx, req.Email, req.Credential)
	if err != nil {
		return nil, s.toStatus(ctx, "sign up", err)
	}

	s.logger.Info(ctx, "Registered", "user_id", result.User.ID)
	return authResponse(result), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.AuthResponse, error) {

	result, err := s.users.SignIn(ctx, req.Email, req.Credential)
	if err != nil {
		return nil, s.toStatus(ctx, "sign in", err)
	}

	return authResponse(result), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.RefreshTokenResponse, error) {

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "refresh token", err)
	}

	return &pb.RefreshTokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}, nil
}

func (s *GRPCServer) GetSession(ctx context.Context, req *pb.GetSessionRequest) (*pb.GetSessionResponse, error) {

	userID, err := s.ownerID(ctx, "")
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetSession(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "get session", err)
	}

	return &pb.GetSessionResponse{UserID: user.ID, Email: user.Email}, nil
}

func (s *GRPCServer) UpdateCredential(ctx context.Context, req *pb.UpdateCredentialRequest) (*pb.UpdateCredentialResponse, error) {

	userID, err := s.ownerID(ctx, "")
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateCredential(ctx, userID, req.CurrentCredential, req.NewCredential); err != nil {
		return nil, s.toStatus(ctx, "update credential", err)
	}

	s.logger.Info(ctx, "Credential updated", "user_id", userID)
	return &pb.UpdateCredentialResponse{}, nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *pb.SignOutRequest) (*pb.SignOutResponse, error) {

	userID, err := s.ownerID(ctx, "")
	if err != nil {
		return nil, err
	}

	if err := s.users.SignOut(ctx, userID, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, "sign out", err)
	}

	return &pb.SignOutResponse{}, nil
}

func (s *GRPCServer) GetRecord(ctx context.Context, req *pb.GetRecordRequest) (*pb.RecordResponse, error) {

	userID, err := s.ownerID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "get record", err)
	}

	return &pb.RecordResponse{Record: recordToPB(rec)}, nil
}

func (s *GRPCServer) InsertRecord(ctx context.Context, req *pb.InsertRecordRequest) (*pb.RecordResponse, error) {

	if req.Record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	userID, err := s.ownerID(ctx, req.Record.UserID)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Insert(ctx, &models.Record{
		UserID:      userID,
		Ciphertext:  req.Record.Ciphertext,
		Salt:        req.Record.Salt,
		KDF:         req.Record.KDF,
		DataVersion: int(req.Record.DataVersion),
	})
	if err != nil {
		return nil, s.toStatus(ctx, "insert record", err)
	}

	return &pb.RecordResponse{Record: recordToPB(rec)}, nil
}

func (s *GRPCServer) UpdateRecord(ctx context.Context, req *pb.UpdateRecordRequest) (*pb.RecordResponse, error) {

	userID, err := s.ownerID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Update(ctx, userID, models.RecordUpdate{
		Ciphertext:      req.Ciphertext,
		Salt:            req.Salt,
		KDF:             req.KDF,
		DataVersion:     int(req.DataVersion),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return nil, s.toStatus(ctx, "update record", err)
	}

	return &pb.RecordResponse{Record: recordToPB(rec)}, nil
}

func (s *GRPCServer) DeleteRecord(ctx context.Context, req *pb.DeleteRecordRequest) (*pb.DeleteRecordResponse, error) {

	userID, err := s.ownerID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.records.Delete(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, "delete record", err)
	}

	s.logger.Info(ctx, "Record deleted", "user_id", userID)
	return &pb.DeleteRecordResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}
