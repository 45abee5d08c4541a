package authv1

import (
	"context"

	"google.golang.org/grpc"
)

type AuthServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error)
	VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*TokenPairResponse, error)
	ResendVerifyEmailToken(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenPairResponse, error)
	ForgotPassword(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error)
	ResendForgotPasswordToken(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error)
	ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPairResponse, error)
	ValidateToken(ctx context.Context, in *ValidateTokenRequest, opts ...grpc.CallOption) (*ValidateTokenResponse, error)
	PresignAvatarUpload(ctx context.Context, in *PresignAvatarUploadRequest, opts ...grpc.CallOption) (*PresignAvatarUploadResponse, error)
	ExternalSignIn(ctx context.Context, in *ExternalSignInRequest, opts ...grpc.CallOption) (*TokenPairResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient returns a client that always selects the JSON codec.
func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error) {
	return invoke[OTPTokenResponse](ctx, c.cc, AuthService_Register_FullMethodName, in, opts)
}

func (c *authServiceClient) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, AuthService_VerifyEmail_FullMethodName, in, opts)
}

func (c *authServiceClient) ResendVerifyEmailToken(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error) {
	return invoke[OTPTokenResponse](ctx, c.cc, AuthService_ResendVerifyEmailToken_FullMethodName, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, AuthService_Login_FullMethodName, in, opts)
}

func (c *authServiceClient) ForgotPassword(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error) {
	return invoke[OTPTokenResponse](ctx, c.cc, AuthService_ForgotPassword_FullMethodName, in, opts)
}

func (c *authServiceClient) ResendForgotPasswordToken(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*OTPTokenResponse, error) {
	return invoke[OTPTokenResponse](ctx, c.cc, AuthService_ResendForgotPasswordToken_FullMethodName, in, opts)
}

func (c *authServiceClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, AuthService_ResetPassword_FullMethodName, in, opts)
}

func (c *authServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, AuthService_RefreshToken_FullMethodName, in, opts)
}

func (c *authServiceClient) ValidateToken(ctx context.Context, in *ValidateTokenRequest, opts ...grpc.CallOption) (*ValidateTokenResponse, error) {
	return invoke[ValidateTokenResponse](ctx, c.cc, AuthService_ValidateToken_FullMethodName, in, opts)
}

func (c *authServiceClient) PresignAvatarUpload(ctx context.Context, in *PresignAvatarUploadRequest, opts ...grpc.CallOption) (*PresignAvatarUploadResponse, error) {
	return invoke[PresignAvatarUploadResponse](ctx, c.cc, AuthService_PresignAvatarUpload_FullMethodName, in, opts)
}

func (c *authServiceClient) ExternalSignIn(ctx context.Context, in *ExternalSignInRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, AuthService_ExternalSignIn_FullMethodName, in, opts)
}

func (c *authServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, AuthService_Ping_FullMethodName, in, opts)
}
