package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/common"
	pb "github.com/dmitrijs2005/maunavault/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastSignUpReq       *pb.SignUpRequest
	lastSignInReq       *pb.SignInRequest
	lastRefreshTokenReq *pb.RefreshTokenRequest
	lastUpdateCredReq   *pb.UpdateCredentialRequest
	lastSignOutReq      *pb.SignOutRequest
	lastGetRecordReq    *pb.GetRecordRequest
	lastInsertReq       *pb.InsertRecordRequest
	lastUpdateReq       *pb.UpdateRecordRequest
	lastDeleteReq       *pb.DeleteRecordRequest

	authResp *pb.AuthResponse
	authErr  error

	refreshTokenResp *pb.RefreshTokenResponse
	refreshTokenErr  error

	getSessionResp *pb.GetSessionResponse
	getSessionErr  error

	updateCredErr error
	signOutErr    error

	recordResp *pb.RecordResponse
	recordErr  error
	deleteErr  error

	pingResp *pb.PingResponse
	pingErr  error
}

func (f *fakePB) SignUp(ctx context.Context, in *pb.SignUpRequest, opts ...grpc.CallOption) (*pb.AuthResponse, error) {
	f.lastSignUpReq = in
	return f.authResp, f.authErr
}
func (f *fakePB) SignIn(ctx context.Context, in *pb.SignInRequest, opts ...grpc.CallOption) (*pb.AuthResponse, error) {
	f.lastSignInReq = in
	return f.authResp, f.authErr
}
func (f *fakePB) RefreshToken(ctx context.Context, in *pb.RefreshTokenRequest, opts ...grpc.CallOption) (*pb.RefreshTokenResponse, error) {
	f.lastRefreshTokenReq = in
	return f.refreshTokenResp, f.refreshTokenErr
}
func (f *fakePB) GetSession(ctx context.Context, in *pb.GetSessionRequest, opts ...grpc.CallOption) (*pb.GetSessionResponse, error) {
	return f.getSessionResp, f.getSessionErr
}
func (f *fakePB) UpdateCredential(ctx context.Context, in *pb.UpdateCredentialRequest, opts ...grpc.CallOption) (*pb.UpdateCredentialResponse, error) {
	f.lastUpdateCredReq = in
	return &pb.UpdateCredentialResponse{}, f.updateCredErr
}
func (f *fakePB) SignOut(ctx context.Context, in *pb.SignOutRequest, opts ...grpc.CallOption) (*pb.SignOutResponse, error) {
	f.lastSignOutReq = in
	return &pb.SignOutResponse{}, f.signOutErr
}
func (f *fakePB) GetRecord(ctx context.Context, in *pb.GetRecordRequest, opts ...grpc.CallOption) (*pb.RecordResponse, error) {
	f.lastGetRecordReq = in
	return f.recordResp, f.recordErr
}
func (f *fakePB) InsertRecord(ctx context.Context, in *pb.InsertRecordRequest, opts ...grpc.CallOption) (*pb.RecordResponse, error) {
	f.lastInsertReq = in
	return f.recordResp, f.recordErr
}
func (f *fakePB) UpdateRecord(ctx context.Context, in *pb.UpdateRecordRequest, opts ...grpc.CallOption) (*pb.RecordResponse, error) {
	f.lastUpdateReq = in
	return f.recordResp, f.recordErr
}
func (f *fakePB) DeleteRecord(ctx context.Context, in *pb.DeleteRecordRequest, opts ...grpc.CallOption) (*pb.DeleteRecordResponse, error) {
	f.lastDeleteReq = in
	return &pb.DeleteRecordResponse{}, f.deleteErr
}
func (f *fakePB) Ping(ctx context.Context, in *pb.PingRequest, opts ...grpc.CallOption) (*pb.PingResponse, error) {
	return f.pingResp, f.pingErr
}

func signedIn(f *fakePB, access, refresh string) *GRPCClient {
	return &GRPCClient{
		client:  f,
		session: &Session{UserID: "u1", Email: "a@b.c", AccessToken: access, RefreshToken: refresh},
	}
}

func recordEvents(c *GRPCClient) *[]SessionEvent {
	var events []SessionEvent
	c.OnSessionChange(func(e SessionEvent) { events = append(events, e) })
	return &events
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	exp := time.Now().Add(time.Hour).UTC()
	f := &fakePB{refreshTokenResp: &pb.RefreshTokenResponse{AccessToken: "A2", RefreshToken: "R2", ExpiresAt: exp}}
	c := signedIn(f, "A1", "R1")
	events := recordEvents(c)

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "R1", f.lastRefreshTokenReq.RefreshToken)

	sess := c.CurrentSession()
	require.Equal(t, "A2", sess.AccessToken)
	require.Equal(t, "R2", sess.RefreshToken)
	require.Equal(t, "u1", sess.UserID)

	require.Len(t, *events, 1)
	assert.Equal(t, TokenRefreshed, (*events)[0].Type)
	assert.Equal(t, "A2", (*events)[0].Session.AccessToken)
}

func TestInterceptor_RejectedRefreshSignsOut(t *testing.T) {
	f := &fakePB{refreshTokenErr: status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())}
	c := signedIn(f, "A1", "R1")
	events := recordEvents(c)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Nil(t, c.CurrentSession())
	require.Len(t, *events, 1)
	assert.Equal(t, SignedOut, (*events)[0].Type)
	assert.Nil(t, (*events)[0].Session)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := &fakePB{}
	c := signedIn(f, "A1", "")

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

func TestInterceptor_NoTokenWhenSignedOut(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Ping", nil, nil, nil, invoker))
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	f := &fakePB{}
	c := signedIn(f, "X", "R")
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Nil(t, c.mapError(nil))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.ErrorIs(t, c.mapError(status.Error(codes.NotFound, "x")), common.ErrorNotFound)
	require.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "x")), common.ErrorAlreadyExists)
	require.ErrorIs(t, c.mapError(status.Error(codes.Aborted, "x")), common.ErrVersionConflict)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "bad salt")), common.ErrorValidation)
	require.ErrorIs(t, c.mapError(ErrUnauthorized), ErrUnauthorized)
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
}

/*************
 * Auth tests
 *************/

func TestSignIn_SetsSessionAndNotifies(t *testing.T) {
	f := &fakePB{authResp: &pb.AuthResponse{UserID: "u1", Email: "a@b.c", AccessToken: "A", RefreshToken: "R"}}
	c := &GRPCClient{client: f}
	events := recordEvents(c)

	sess, err := c.SignIn(context.Background(), "a@b.c", "cred")
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "A", c.CurrentSession().AccessToken)
	require.Equal(t, "cred", f.lastSignInReq.Credential)
	require.Len(t, *events, 1)
	assert.Equal(t, SignedIn, (*events)[0].Type)
}

func TestSignUp_MapsError(t *testing.T) {
	f := &fakePB{authErr: status.Error(codes.AlreadyExists, "user exists")}
	c := &GRPCClient{client: f}

	_, err := c.SignUp(context.Background(), "a@b.c", "cred")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.Nil(t, c.CurrentSession())
	require.Equal(t, "a@b.c", f.lastSignUpReq.Email)
}

func TestResume(t *testing.T) {
	f := &fakePB{getSessionResp: &pb.GetSessionResponse{UserID: "u1", Email: "a@b.c"}}
	c := &GRPCClient{client: f}

	sess, err := c.Resume(context.Background(), &Session{AccessToken: "A", RefreshToken: "R"})
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "A", sess.AccessToken)
}

func TestResume_Rejected(t *testing.T) {
	f := &fakePB{getSessionErr: status.Error(codes.Unauthenticated, "invalid token")}
	c := &GRPCClient{client: f}

	_, err := c.Resume(context.Background(), &Session{AccessToken: "A", RefreshToken: "R"})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Nil(t, c.CurrentSession())

	_, err = c.Resume(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestUpdateCredential(t *testing.T) {
	f := &fakePB{}
	c := signedIn(f, "A", "R")
	require.NoError(t, c.UpdateCredential(context.Background(), CredentialUpdate{CurrentCredential: "old", NewCredential: "new"}))
	require.Equal(t, "old", f.lastUpdateCredReq.CurrentCredential)
	require.Equal(t, "new", f.lastUpdateCredReq.NewCredential)

	f.updateCredErr = status.Error(codes.Unavailable, "down")
	require.ErrorIs(t, c.UpdateCredential(context.Background(), CredentialUpdate{}), ErrUnavailable)
}

func TestSignOut_ClearsEvenOnError(t *testing.T) {
	f := &fakePB{signOutErr: status.Error(codes.Unavailable, "down")}
	c := signedIn(f, "A", "R")
	events := recordEvents(c)

	err := c.SignOut(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, c.CurrentSession())
	require.Equal(t, "R", f.lastSignOutReq.RefreshToken)
	require.Len(t, *events, 1)

	require.NoError(t, c.SignOut(context.Background()), "second sign out is a no-op")
}

func TestOnSessionChange_Unsubscribe(t *testing.T) {
	f := &fakePB{}
	c := signedIn(f, "A", "R")

	n := 0
	unsubscribe := c.OnSessionChange(func(SessionEvent) { n++ })
	unsubscribe()

	require.NoError(t, c.SignOut(context.Background()))
	require.Zero(t, n)
}

/*************
 * Record tests
 *************/

func TestGetRecord(t *testing.T) {
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	f := &fakePB{recordResp: &pb.RecordResponse{Record: &pb.Record{
		UserID: "u1", Ciphertext: "mv1.x", Salt: "s", KDF: "pbkdf2-sha256$i=310000", DataVersion: 1, Version: 4, UpdatedAt: at,
	}}}
	c := signedIn(f, "A", "R")

	rec, err := c.GetRecord(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, &models.EncryptedRecord{
		UserID: "u1", Ciphertext: "mv1.x", Salt: "s", KDF: "pbkdf2-sha256$i=310000", DataVersion: 1, Version: 4, UpdatedAt: at,
	}, rec)
	require.Equal(t, "u1", f.lastGetRecordReq.UserID)
}

func TestGetRecord_NotFound(t *testing.T) {
	f := &fakePB{recordErr: status.Error(codes.NotFound, "no record")}
	c := signedIn(f, "A", "R")

	_, err := c.GetRecord(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInsertRecord(t *testing.T) {
	f := &fakePB{recordResp: &pb.RecordResponse{Record: &pb.Record{UserID: "u1", Version: 1}}}
	c := signedIn(f, "A", "R")

	rec, err := c.InsertRecord(context.Background(), &models.EncryptedRecord{UserID: "u1", Ciphertext: "c", Salt: "s", KDF: "k", DataVersion: 1})
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.Version)
	require.Equal(t, "c", f.lastInsertReq.Record.Ciphertext)
	require.EqualValues(t, 1, f.lastInsertReq.Record.DataVersion)
}

func TestUpdateRecord_Conflict(t *testing.T) {
	f := &fakePB{recordErr: status.Error(codes.Aborted, "version conflict")}
	c := signedIn(f, "A", "R")

	_, err := c.UpdateRecord(context.Background(), "u1", RecordUpdate{Ciphertext: "c", ExpectedVersion: 3})
	require.ErrorIs(t, err, common.ErrVersionConflict)
	require.EqualValues(t, 3, f.lastUpdateReq.ExpectedVersion)
}

func TestDeleteRecord(t *testing.T) {
	f := &fakePB{}
	c := signedIn(f, "A", "R")
	require.NoError(t, c.DeleteRecord(context.Background(), "u1"))
	require.Equal(t, "u1", f.lastDeleteReq.UserID)
}

/*************
 * Ping tests
 *************/

func TestPing_OK(t *testing.T) {
	c := &GRPCClient{client: &fakePB{pingResp: &pb.PingResponse{Status: "OK"}}}
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_NotOK_ReturnsUnavailable(t *testing.T) {
	c := &GRPCClient{client: &fakePB{pingResp: &pb.PingResponse{Status: "NOT_OK"}}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestWithTimeout(t *testing.T) {
	c := &GRPCClient{timeout: time.Second}
	ctx, cancel := c.withTimeout(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	require.True(t, ok)

	c.timeout = 0
	ctx2, cancel2 := c.withTimeout(context.Background())
	defer cancel2()
	_, ok = ctx2.Deadline()
	require.False(t, ok)
}
