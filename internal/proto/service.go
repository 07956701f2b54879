package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const VaultService_ServiceName = "maunavault.VaultService"

const (
	VaultService_SignUp_FullMethodName           = "/maunavault.VaultService/SignUp"
	VaultService_SignIn_FullMethodName           = "/maunavault.VaultService/SignIn"
	VaultService_RefreshToken_FullMethodName     = "/maunavault.VaultService/RefreshToken"
	VaultService_GetSession_FullMethodName       = "/maunavault.VaultService/GetSession"
	VaultService_UpdateCredential_FullMethodName = "/maunavault.VaultService/UpdateCredential"
	VaultService_SignOut_FullMethodName          = "/maunavault.VaultService/SignOut"
	VaultService_GetRecord_FullMethodName        = "/maunavault.VaultService/GetRecord"
	VaultService_InsertRecord_FullMethodName     = "/maunavault.VaultService/InsertRecord"
	VaultService_UpdateRecord_FullMethodName     = "/maunavault.VaultService/UpdateRecord"
	VaultService_DeleteRecord_FullMethodName     = "/maunavault.VaultService/DeleteRecord"
	VaultService_Ping_FullMethodName             = "/maunavault.VaultService/Ping"
)

// VaultServiceServer is implemented by the backend.
type VaultServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	UpdateCredential(context.Context, *UpdateCredentialRequest) (*UpdateCredentialResponse, error)
	SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error)
	GetRecord(context.Context, *GetRecordRequest) (*RecordResponse, error)
	InsertRecord(context.Context, *InsertRecordRequest) (*RecordResponse, error)
	UpdateRecord(context.Context, *UpdateRecordRequest) (*RecordResponse, error)
	DeleteRecord(context.Context, *DeleteRecordRequest) (*DeleteRecordResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedVaultServiceServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedVaultServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedVaultServiceServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, unimplemented("SignUp")
}
func (UnimplementedVaultServiceServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, unimplemented("SignIn")
}
func (UnimplementedVaultServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedVaultServiceServer) GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error) {
	return nil, unimplemented("GetSession")
}
func (UnimplementedVaultServiceServer) UpdateCredential(context.Context, *UpdateCredentialRequest) (*UpdateCredentialResponse, error) {
	return nil, unimplemented("UpdateCredential")
}
func (UnimplementedVaultServiceServer) SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error) {
	return nil, unimplemented("SignOut")
}
func (UnimplementedVaultServiceServer) GetRecord(context.Context, *GetRecordRequest) (*RecordResponse, error) {
	return nil, unimplemented("GetRecord")
}
func (UnimplementedVaultServiceServer) InsertRecord(context.Context, *InsertRecordRequest) (*RecordResponse, error) {
	return nil, unimplemented("InsertRecord")
}
func (UnimplementedVaultServiceServer) UpdateRecord(context.Context, *UpdateRecordRequest) (*RecordResponse, error) {
	return nil, unimplemented("UpdateRecord")
}
func (UnimplementedVaultServiceServer) DeleteRecord(context.Context, *DeleteRecordRequest) (*DeleteRecordResponse, error) {
	return nil, unimplemented("DeleteRecord")
}
func (UnimplementedVaultServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}

func unaryMethod[Req, Resp any](name, fullMethod string, call func(VaultServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VaultServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// VaultService_ServiceDesc is the grpc.ServiceDesc of the backend API.
var VaultService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: VaultService_ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("SignUp", VaultService_SignUp_FullMethodName, VaultServiceServer.SignUp),
		unaryMethod("SignIn", VaultService_SignIn_FullMethodName, VaultServiceServer.SignIn),
		unaryMethod("RefreshToken", VaultService_RefreshToken_FullMethodName, VaultServiceServer.RefreshToken),
		unaryMethod("GetSession", VaultService_GetSession_FullMethodName, VaultServiceServer.GetSession),
		unaryMethod("UpdateCredential", VaultService_UpdateCredential_FullMethodName, VaultServiceServer.UpdateCredential),
		unaryMethod("SignOut", VaultService_SignOut_FullMethodName, VaultServiceServer.SignOut),
		unaryMethod("GetRecord", VaultService_GetRecord_FullMethodName, VaultServiceServer.GetRecord),
		unaryMethod("InsertRecord", VaultService_InsertRecord_FullMethodName, VaultServiceServer.InsertRecord),
		unaryMethod("UpdateRecord", VaultService_UpdateRecord_FullMethodName, VaultServiceServer.UpdateRecord),
		unaryMethod("DeleteRecord", VaultService_DeleteRecord_FullMethodName, VaultServiceServer.DeleteRecord),
		unaryMethod("Ping", VaultService_Ping_FullMethodName, VaultServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "maunavault/vault.json",
}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultService_ServiceDesc, srv)
}

// VaultServiceClient is the client API of the backend.
type VaultServiceClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error)
	UpdateCredential(ctx context.Context, in *UpdateCredentialRequest, opts ...grpc.CallOption) (*UpdateCredentialResponse, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error)
	GetRecord(ctx context.Context, in *GetRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	InsertRecord(ctx context.Context, in *InsertRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	UpdateRecord(ctx context.Context, in *UpdateRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	DeleteRecord(ctx context.Context, in *DeleteRecordRequest, opts ...grpc.CallOption) (*DeleteRecordResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, VaultService_SignUp_FullMethodName, in, opts)
}

func (c *vaultServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, VaultService_SignIn_FullMethodName, in, opts)
}

func (c *vaultServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, VaultService_RefreshToken_FullMethodName, in, opts)
}

func (c *vaultServiceClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	return invoke[GetSessionResponse](ctx, c.cc, VaultService_GetSession_FullMethodName, in, opts)
}

func (c *vaultServiceClient) UpdateCredential(ctx context.Context, in *UpdateCredentialRequest, opts ...grpc.CallOption) (*UpdateCredentialResponse, error) {
	return invoke[UpdateCredentialResponse](ctx, c.cc, VaultService_UpdateCredential_FullMethodName, in, opts)
}

func (c *vaultServiceClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error) {
	return invoke[SignOutResponse](ctx, c.cc, VaultService_SignOut_FullMethodName, in, opts)
}

func (c *vaultServiceClient) GetRecord(ctx context.Context, in *GetRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, VaultService_GetRecord_FullMethodName, in, opts)
}

func (c *vaultServiceClient) InsertRecord(ctx context.Context, in *InsertRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, VaultService_InsertRecord_FullMethodName, in, opts)
}

func (c *vaultServiceClient) UpdateRecord(ctx context.Context, in *UpdateRecordRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, VaultService_UpdateRecord_FullMethodName, in, opts)
}

func (c *vaultServiceClient) DeleteRecord(ctx context.Context, in *DeleteRecordRequest, opts ...grpc.CallOption) (*DeleteRecordResponse, error) {
	return invoke[DeleteRecordResponse](ctx, c.cc, VaultService_DeleteRecord_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, VaultService_Ping_FullMethodName, in, opts)
}
