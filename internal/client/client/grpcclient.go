package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/client/refresh"
	md "github.com/dmitrijs2005/fintrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/netx"
)

const refreshTimeout = 10 * time.Second

// expiredMessage is the only rejection a refresh can cure.
const expiredMessage = "Token Expired!"

// accessMethods are the calls that carry the stored access token.
var accessMethods = map[string]bool{
	authv1.AuthService_ValidateToken_FullMethodName:       true,
	authv1.AuthService_PresignAvatarUpload_FullMethodName: true,
}

type GRPCClient struct {
	conns       []*grpc.ClientConn
	api         authv1.AuthServiceClient
	store       md.Store
	coordinator *refresh.Coordinator
}

func dial(addr string, opts []grpc.DialOption, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	all := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	all = append(all, opts...)
	return grpc.NewClient(addr, append(all, extra...)...)
}

// NewGRPCClient connects to the auth service. Refresh calls use a second
// connection without the token interceptor so they never recurse.
func NewGRPCClient(addr string, store md.Store, onSessionEnded func(), opts ...grpc.DialOption) (*GRPCClient, error) {
	plain, err := dial(addr, opts)
	if err != nil {
		return nil, err
	}

	raw := authv1.NewAuthServiceClient(plain)
	c := &GRPCClient{store: store}
	c.coordinator = refresh.NewCoordinator(store, func(ctx context.Context, refreshToken string) (md.Tokens, error) {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		pair, err := raw.RefreshToken(withToken(ctx, refreshToken), &authv1.RefreshTokenRequest{})
		if err != nil {
			return md.Tokens{}, err
		}
		return md.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
	})
	c.coordinator.OnSessionEnded = onSessionEnded

	conn, err := dial(addr, opts, grpc.WithUnaryInterceptor(c.tokenInterceptor))
	if err != nil {
		_ = plain.Close()
		return nil, err
	}
	c.conns = []*grpc.ClientConn{plain, conn}
	c.api = authv1.NewAuthServiceClient(conn)
	return c, nil
}

func hasToken(ctx context.Context) bool {
	m, ok := metadata.FromOutgoingContext(ctx)
	return ok && len(m.Get(common.TokenHeaderName)) > 0
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.TokenHeaderName, token)
}

// tokenInterceptor attaches the stored access token to calls that need one
// and did not set x-token themselves. An expired-token reply triggers one
// coordinated refresh and one retry.
func (c *GRPCClient) tokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if !accessMethods[method] || hasToken(ctx) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens, err := c.store.Tokens(ctx)
	if err != nil {
		return err
	}

	err = invoker(withToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Unauthenticated || st.Message() != expiredMessage {
		return err
	}

	fresh, rerr := c.coordinator.Refresh(ctx, tokens.AccessToken)
	if rerr != nil {
		return err
	}
	return invoker(withToken(ctx, fresh), method, req, reply, cc, opts...)
}

func (c *GRPCClient) Close() error {
	var first error
	for _, cc := range c.conns {
		if err := cc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, &authv1.PingRequest{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) keepOTP(ctx context.Context, res *authv1.OTPTokenResponse, err error) (string, error) {
	if err != nil {
		return "", mapError(err)
	}
	if err := c.store.Set(ctx, md.KeyOTPToken, res.OTPToken); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *GRPCClient) keepPair(ctx context.Context, pair *authv1.TokenPairResponse, err error) (*authv1.User, error) {
	if err != nil {
		return nil, mapError(err)
	}
	if err := c.store.SaveTokens(ctx, md.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}); err != nil {
		return nil, err
	}
	if pair.User != nil {
		if err := c.store.Set(ctx, md.KeyEmail, pair.User.Email); err != nil {
			return nil, err
		}
	}
	return pair.User, nil
}

func (c *GRPCClient) pendingOTP(ctx context.Context) (context.Context, error) {
	token, err := c.store.Get(ctx, md.KeyOTPToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoPendingOTP
	}
	return withToken(ctx, token), nil
}

// Register creates the account and keeps the verification token for Verify.
func (c *GRPCClient) Register(ctx context.Context, email, firstName, lastName, password string) (string, error) {
	res, err := c.api.Register(ctx, &authv1.RegisterRequest{
		Email: email, FirstName: firstName, LastName: lastName, Password: password,
	})
	return c.keepOTP(ctx, res, err)
}

func (c *GRPCClient) ResendVerifyEmail(ctx context.Context, email string) (string, error) {
	res, err := c.api.ResendVerifyEmailToken(ctx, &authv1.EmailRequest{Email: email})
	return c.keepOTP(ctx, res, err)
}

func (c *GRPCClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	res, err := c.api.ForgotPassword(ctx, &authv1.EmailRequest{Email: email})
	return c.keepOTP(ctx, res, err)
}

func (c *GRPCClient) ResendForgotPassword(ctx context.Context, email string) (string, error) {
	res, err := c.api.ResendForgotPasswordToken(ctx, &authv1.EmailRequest{Email: email})
	return c.keepOTP(ctx, res, err)
}

// VerifyEmail completes registration with the emailed code and signs in.
func (c *GRPCClient) VerifyEmail(ctx context.Context, code string) (*authv1.User, error) {
	otpCtx, err := c.pendingOTP(ctx)
	if err != nil {
		return nil, err
	}
	pair, err := c.api.VerifyEmail(otpCtx, &authv1.VerifyEmailRequest{OTP: code})
	user, err := c.keepPair(ctx, pair, err)
	if err != nil {
		return nil, err
	}
	return user, c.store.Delete(ctx, md.KeyOTPToken)
}

func (c *GRPCClient) Login(ctx context.Context, email, password string) (*authv1.User, error) {
	pair, err := c.api.Login(ctx, &authv1.LoginRequest{Email: email, Password: password})
	return c.keepPair(ctx, pair, err)
}

// ResetPassword sets a new password. The server revokes every session, so
// the local credentials are dropped too.
func (c *GRPCClient) ResetPassword(ctx context.Context, code, password string) (string, error) {
	otpCtx, err := c.pendingOTP(ctx)
	if err != nil {
		return "", err
	}
	res, err := c.api.ResetPassword(otpCtx, &authv1.ResetPasswordRequest{OTP: code, Password: password})
	if err != nil {
		return "", mapError(err)
	}
	if err := c.store.Clear(ctx); err != nil {
		return "", fmt.Errorf("clear credentials: %w", err)
	}
	return res.Message, nil
}

func (c *GRPCClient) WhoAmI(ctx context.Context) (*authv1.User, error) {
	res, err := c.api.ValidateToken(ctx, &authv1.ValidateTokenRequest{})
	if err != nil {
		return nil, mapError(err)
	}
	return res.User, nil
}

// UploadAvatar asks the server for a presigned URL and PUTs the image there.
// It returns the public URL now stored as the user's avatar.
func (c *GRPCClient) UploadAvatar(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	contentType := http.DetectContentType(data)

	res, err := c.api.PresignAvatarUpload(ctx, &authv1.PresignAvatarUploadRequest{ContentType: contentType})
	if err != nil {
		return "", mapError(err)
	}
	if err := netx.UploadPresigned(ctx, res.UploadURL, contentType, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res.ObjectURL, nil
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// LoggedIn reports whether a refresh token is stored.
func (c *GRPCClient) LoggedIn(ctx context.Context) bool {
	t, err := c.store.Tokens(ctx)
	return err == nil && t.RefreshToken != ""
}
