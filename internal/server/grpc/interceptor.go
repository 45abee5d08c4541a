package grpc

import (
	"context"
	"crypto/subtle"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
)

// Policy is what a method demands from the caller. The zero value is public.
type Policy struct {
	Class      auth.Class
	ServiceKey bool
}

var policies = map[string]Policy{
	authv1.AuthService_VerifyEmail_FullMethodName:         {Class: auth.ClassOTP},
	authv1.AuthService_ResetPassword_FullMethodName:       {Class: auth.ClassOTP},
	authv1.AuthService_RefreshToken_FullMethodName:        {Class: auth.ClassRefresh},
	authv1.AuthService_ValidateToken_FullMethodName:       {Class: auth.ClassAccess},
	authv1.AuthService_PresignAvatarUpload_FullMethodName: {Class: auth.ClassAccess},
	authv1.AuthService_ExternalSignIn_FullMethodName:      {ServiceKey: true},
}

// PolicyFor returns the policy of a full method name.
func PolicyFor(fullMethod string) Policy {
	return policies[fullMethod]
}

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFromContext returns the verified token payload attached by the guard.
func IdentityFromContext(ctx context.Context) (*auth.Payload, bool) {
	p, ok := ctx.Value(identityKey).(*auth.Payload)
	return p, ok
}

func firstValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(key)
		if len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) guardInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	policy := PolicyFor(info.FullMethod)

	if policy.ServiceKey {
		key := firstValue(ctx, common.ServiceKeyHeaderName)
		if s.serviceKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.serviceKey)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid service key")
		}
	}

	if policy.Class != "" {
		token := firstValue(ctx, common.TokenHeaderName)
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		payload, err := s.codec.Verify(token, policy.Class)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				return nil, status.Error(codes.Unauthenticated, "Token Expired!")
			case errors.Is(err, auth.ErrTokenClassMismatch):
				return nil, status.Error(codes.Unauthenticated, "Invalid Token Type!")
			default:
				return nil, status.Error(codes.Unauthenticated, "Invalid Token!")
			}
		}

		ctx = context.WithValue(ctx, identityKey, payload)
		ctx = logging.WithAttrs(ctx, "user_id", payload.ID)
	}

	return handler(ctx, req)
}
