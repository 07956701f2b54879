package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/common"
	pb "github.com/dmitrijs2005/maunavault/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.VaultServiceClient

	mu        sync.Mutex
	session   *Session
	listeners map[int]func(SessionEvent)
	nextID    int
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", ""
	}
	return s.session.AccessToken, s.session.RefreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()
	if access != "" {
		ctx = withAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	if rerr := s.refresh(ctx, refresh); rerr != nil {
		return rerr
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refresh exchanges the refresh token. A rejected refresh token ends the
// session and notifies listeners with SignedOut.
func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) error {
	resp, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.setSession(nil, SignedOut)
			return ErrUnauthorized
		}
		return s.mapError(err)
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	next := *s.session
	s.mu.Unlock()

	next.AccessToken = resp.AccessToken
	next.RefreshToken = resp.RefreshToken
	next.ExpiresAt = resp.ExpiresAt
	s.setSession(&next, TokenRefreshed)
	return nil
}

func (s *GRPCClient) setSession(sess *Session, ev SessionEventType) {
	s.mu.Lock()
	s.session = sess
	fns := make([]func(SessionEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	var cp *Session
	if sess != nil {
		c := *sess
		cp = &c
	}
	for _, fn := range fns {
		fn(SessionEvent{Type: ev, Session: cp})
	}
}

// NewGRPCClient connects to endpointURL. timeout bounds each call that has
// no deadline of its own; zero disables it.
func NewGRPCClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewVaultServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sessionFromAuth(r *pb.AuthResponse) *Session {
	return &Session{
		UserID:       r.UserID,
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
	}
}

func (s *GRPCClient) SignUp(ctx context.Context, email, credential string) (*Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignUp(ctx, &pb.SignUpRequest{Email: email, Credential: credential})
	if err != nil {
		return nil, s.mapError(err)
	}
	sess := sessionFromAuth(resp)
	s.setSession(sess, SignedIn)
	return s.CurrentSession(), nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, credential string) (*Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignIn(ctx, &pb.SignInRequest{Email: email, Credential: credential})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.setSession(sessionFromAuth(resp), SignedIn)
	return s.CurrentSession(), nil
}

func (s *GRPCClient) Resume(ctx context.Context, sess *Session) (*Session, error) {
	if sess == nil || sess.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.mu.Lock()
	c := *sess
	s.session = &c
	s.mu.Unlock()

	resp, err := s.client.GetSession(ctx, &pb.GetSessionRequest{})
	if err != nil {
		err = s.mapError(err)
		if errors.Is(err, ErrUnauthorized) {
			s.mu.Lock()
			s.session = nil
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	if s.session != nil {
		s.session.UserID = resp.UserID
		s.session.Email = resp.Email
	}
	s.mu.Unlock()
	return s.CurrentSession(), nil
}

// CurrentSession returns a copy of the active session or nil.
func (s *GRPCClient) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	c := *s.session
	return &c
}

func (s *GRPCClient) UpdateCredential(ctx context.Context, u CredentialUpdate) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.UpdateCredential(ctx, &pb.UpdateCredentialRequest{
		CurrentCredential: u.CurrentCredential,
		NewCredential:     u.NewCredential,
	})
	return s.mapError(err)
}

// SignOut revokes the refresh token on the server and drops the local
// session. The local session is dropped even if the server call fails.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	_, refresh := s.tokens()
	if refresh == "" {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.SignOut(ctx, &pb.SignOutRequest{RefreshToken: refresh})
	s.setSession(nil, SignedOut)
	return s.mapError(err)
}

func (s *GRPCClient) OnSessionChange(fn func(SessionEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(SessionEvent))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func recordFromPB(r *pb.Record) *models.EncryptedRecord {
	if r == nil {
		return nil
	}
	return &models.EncryptedRecord{
		UserID:      r.UserID,
		Ciphertext:  r.Ciphertext,
		Salt:        r.Salt,
		KDF:         r.KDF,
		DataVersion: int(r.DataVersion),
		Version:     r.Version,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *GRPCClient) GetRecord(ctx context.Context, userID string) (*models.EncryptedRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetRecord(ctx, &pb.GetRecordRequest{UserID: userID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return recordFromPB(resp.Record), nil
}

func (s *GRPCClient) InsertRecord(ctx context.Context, r *models.EncryptedRecord) (*models.EncryptedRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.InsertRecord(ctx, &pb.InsertRecordRequest{Record: &pb.Record{
		UserID:      r.UserID,
		Ciphertext:  r.Ciphertext,
		Salt:        r.Salt,
		KDF:         r.KDF,
		DataVersion: int32(r.DataVersion),
	}})
	if err != nil {
		return nil, s.mapError(err)
	}
	return recordFromPB(resp.Record), nil
}

func (s *GRPCClient) UpdateRecord(ctx context.Context, userID string, u RecordUpdate) (*models.EncryptedRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateRecord(ctx, &pb.UpdateRecordRequest{
		UserID:          userID,
		Ciphertext:      u.Ciphertext,
		Salt:            u.Salt,
		KDF:             u.KDF,
		DataVersion:     int32(u.DataVersion),
		ExpectedVersion: u.ExpectedVersion,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return recordFromPB(resp.Record), nil
}

func (s *GRPCClient) DeleteRecord(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteRecord(ctx, &pb.DeleteRecordRequest{UserID: userID})
	return s.mapError(err)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotSignedIn) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.Aborted:
		return common.ErrVersionConflict
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
