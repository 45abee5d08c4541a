package authv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "fintrack.auth.v1.AuthService"

const (
	AuthService_Register_FullMethodName                  = "/" + ServiceName + "/Register"
	AuthService_VerifyEmail_FullMethodName               = "/" + ServiceName + "/VerifyEmail"
	AuthService_ResendVerifyEmailToken_FullMethodName    = "/" + ServiceName + "/ResendVerifyEmailToken"
	AuthService_Login_FullMethodName                     = "/" + ServiceName + "/Login"
	AuthService_ForgotPassword_FullMethodName            = "/" + ServiceName + "/ForgotPassword"
	AuthService_ResendForgotPasswordToken_FullMethodName = "/" + ServiceName + "/ResendForgotPasswordToken"
	AuthService_ResetPassword_FullMethodName             = "/" + ServiceName + "/ResetPassword"
	AuthService_RefreshToken_FullMethodName              = "/" + ServiceName + "/RefreshToken"
	AuthService_ValidateToken_FullMethodName             = "/" + ServiceName + "/ValidateToken"
	AuthService_PresignAvatarUpload_FullMethodName       = "/" + ServiceName + "/PresignAvatarUpload"
	AuthService_ExternalSignIn_FullMethodName            = "/" + ServiceName + "/ExternalSignIn"
	AuthService_Ping_FullMethodName                      = "/" + ServiceName + "/Ping"
)

// AuthServiceServer is implemented by the auth service.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*OTPTokenResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*TokenPairResponse, error)
	ResendVerifyEmailToken(context.Context, *EmailRequest) (*OTPTokenResponse, error)
	Login(context.Context, *LoginRequest) (*TokenPairResponse, error)
	ForgotPassword(context.Context, *EmailRequest) (*OTPTokenResponse, error)
	ResendForgotPasswordToken(context.Context, *EmailRequest) (*OTPTokenResponse, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*MessageResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPairResponse, error)
	ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error)
	PresignAvatarUpload(context.Context, *PresignAvatarUploadRequest) (*PresignAvatarUploadResponse, error)
	ExternalSignIn(context.Context, *ExternalSignInRequest) (*TokenPairResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedAuthServiceServer answers every method with codes.Unimplemented.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*OTPTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) VerifyEmail(context.Context, *VerifyEmailRequest) (*TokenPairResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyEmail not implemented")
}
func (UnimplementedAuthServiceServer) ResendVerifyEmailToken(context.Context, *EmailRequest) (*OTPTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResendVerifyEmailToken not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*TokenPairResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) ForgotPassword(context.Context, *EmailRequest) (*OTPTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ForgotPassword not implemented")
}
func (UnimplementedAuthServiceServer) ResendForgotPasswordToken(context.Context, *EmailRequest) (*OTPTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResendForgotPasswordToken not implemented")
}
func (UnimplementedAuthServiceServer) ResetPassword(context.Context, *ResetPasswordRequest) (*MessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetPassword not implemented")
}
func (UnimplementedAuthServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPairResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedAuthServiceServer) ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateToken not implemented")
}
func (UnimplementedAuthServiceServer) PresignAvatarUpload(context.Context, *PresignAvatarUploadRequest) (*PresignAvatarUploadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PresignAvatarUpload not implemented")
}
func (UnimplementedAuthServiceServer) ExternalSignIn(context.Context, *ExternalSignInRequest) (*TokenPairResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExternalSignIn not implemented")
}
func (UnimplementedAuthServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

// unary adapts a typed server method to grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(AuthService_Register_FullMethodName, AuthServiceServer.Register)},
		{MethodName: "VerifyEmail", Handler: unary(AuthService_VerifyEmail_FullMethodName, AuthServiceServer.VerifyEmail)},
		{MethodName: "ResendVerifyEmailToken", Handler: unary(AuthService_ResendVerifyEmailToken_FullMethodName, AuthServiceServer.ResendVerifyEmailToken)},
		{MethodName: "Login", Handler: unary(AuthService_Login_FullMethodName, AuthServiceServer.Login)},
		{MethodName: "ForgotPassword", Handler: unary(AuthService_ForgotPassword_FullMethodName, AuthServiceServer.ForgotPassword)},
		{MethodName: "ResendForgotPasswordToken", Handler: unary(AuthService_ResendForgotPasswordToken_FullMethodName, AuthServiceServer.ResendForgotPasswordToken)},
		{MethodName: "ResetPassword", Handler: unary(AuthService_ResetPassword_FullMethodName, AuthServiceServer.ResetPassword)},
		{MethodName: "RefreshToken", Handler: unary(AuthService_RefreshToken_FullMethodName, AuthServiceServer.RefreshToken)},
		{MethodName: "ValidateToken", Handler: unary(AuthService_ValidateToken_FullMethodName, AuthServiceServer.ValidateToken)},
		{MethodName: "PresignAvatarUpload", Handler: unary(AuthService_PresignAvatarUpload_FullMethodName, AuthServiceServer.PresignAvatarUpload)},
		{MethodName: "ExternalSignIn", Handler: unary(AuthService_ExternalSignIn_FullMethodName, AuthServiceServer.ExternalSignIn)},
		{MethodName: "Ping", Handler: unary(AuthService_Ping_FullMethodName, AuthServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fintrack/auth/v1/auth.json",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}
