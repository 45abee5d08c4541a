package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
)

const codeSentMessage = "If the account exists, a code has been sent to the email"

func toUser(u *models.User) *authv1.User {
	if u == nil {
		return nil
	}
	return &authv1.User{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Avatar:        u.Avatar,
		EmailVerified: u.EmailVerified,
	}
}

func toPair(r *services.AuthResult) *authv1.TokenPairResponse {
	return &authv1.TokenPairResponse{
		User:         toUser(r.User),
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

func identity(ctx context.Context) (*auth.Payload, error) {
	p, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return p, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *authv1.RegisterRequest) (*authv1.OTPTokenResponse, error) {

	s.logger.Info(ctx, "Registration request")

	result, err := s.auth.Register(ctx, req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "id", result.User.ID)
	return &authv1.OTPTokenResponse{Message: "Verification code sent to the email", OTPToken: result.OTPToken}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *authv1.VerifyEmailRequest) (*authv1.TokenPairResponse, error) {
	p, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.auth.VerifyEmail(ctx, p, req.OTP)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPair(result), nil
}

func (s *GRPCServer) ResendVerifyEmailToken(ctx context.Context, req *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
	result, err := s.auth.ResendVerifyEmailToken(ctx, req.Email)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authv1.OTPTokenResponse{Message: codeSentMessage, OTPToken: result.OTPToken}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.TokenPairResponse, error) {
	result, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPair(result), nil
}

func (s *GRPCServer) ForgotPassword(ctx context.Context, req *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
	result, err := s.auth.ForgotPassword(ctx, req.Email)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authv1.OTPTokenResponse{Message: codeSentMessage, OTPToken: result.OTPToken}, nil
}

func (s *GRPCServer) ResendForgotPasswordToken(ctx context.Context, req *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
	result, err := s.auth.ResendForgotPasswordToken(ctx, req.Email)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authv1.OTPTokenResponse{Message: codeSentMessage, OTPToken: result.OTPToken}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *authv1.ResetPasswordRequest) (*authv1.MessageResponse, error) {
	p, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.auth.ResetPassword(ctx, p, req.OTP, req.Password); err != nil {
		return nil, toStatus(err)
	}
	return &authv1.MessageResponse{Message: "Password updated, please login again"}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, _ *authv1.RefreshTokenRequest) (*authv1.TokenPairResponse, error) {
	p, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.auth.RefreshToken(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPair(result), nil
}

func (s *GRPCServer) ValidateToken(ctx context.Context, _ *authv1.ValidateTokenRequest) (*authv1.ValidateTokenResponse, error) {
	p, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.auth.ValidateToken(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authv1.ValidateTokenResponse{User: toUser(u)}, nil
}

func (s *GRPCServer) PresignAvatarUpload(ctx context.Context, req *authv1.PresignAvatarUploadRequest) (*authv1.PresignAvatarUploadResponse, error) {
	p, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	up, err := s.auth.PresignAvatarUpload(ctx, p, req.ContentType)
	if err != nil {
		return nil, toStatus(err)
	}
	return &authv1.PresignAvatarUploadResponse{UploadURL: up.UploadURL, ObjectURL: up.ObjectURL}, nil
}

func (s *GRPCServer) ExternalSignIn(ctx context.Context, req *authv1.ExternalSignInRequest) (*authv1.TokenPairResponse, error) {
	result, err := s.auth.ExternalSignIn(ctx, services.ExternalIdentity{
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Avatar:            req.Avatar,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toPair(result), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *authv1.PingRequest) (*authv1.PingResponse, error) {

	return &authv1.PingResponse{Status: "OK"}, nil

}
