package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
)

func bearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.TokenHeaderName, token)
}

func TestAuthFlow_OverGRPC(t *testing.T) {
	s, sink := newTestServer(t)
	client := startBufconn(t, s)
	ctx := context.Background()

	reg, err := client.Register(ctx, &authv1.RegisterRequest{
		Email: "a@b.com", FirstName: "A", LastName: "B", Password: "Secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.OTPToken)

	_, err = client.Login(ctx, &authv1.LoginRequest{Email: "a@b.com", Password: "Secret123"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.VerifyEmail(ctx, &authv1.VerifyEmailRequest{OTP: sink.code()})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "otp token is required")

	pair, err := client.VerifyEmail(bearer(ctx, reg.OTPToken), &authv1.VerifyEmailRequest{OTP: sink.code()})
	require.NoError(t, err)
	assert.True(t, pair.User.EmailVerified)

	_, err = client.VerifyEmail(bearer(ctx, reg.OTPToken), &authv1.VerifyEmailRequest{OTP: sink.code()})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "Invalid Token", st.Message())

	me, err := client.ValidateToken(bearer(ctx, pair.AccessToken), &authv1.ValidateTokenRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.User.Email)

	rotated, err := client.RefreshToken(bearer(ctx, pair.RefreshToken), &authv1.RefreshTokenRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = client.RefreshToken(bearer(ctx, pair.RefreshToken), &authv1.RefreshTokenRequest{})
	st, _ = status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "Token Expired!", st.Message())

	_, err = client.ResendVerifyEmailToken(ctx, &authv1.EmailRequest{Email: "a@b.com"})
	require.NoError(t, err)

	pong, err := client.Ping(ctx, &authv1.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)
}

func TestForgotAndReset_OverGRPC(t *testing.T) {
	s, sink := newTestServer(t)
	client := startBufconn(t, s)
	ctx := context.Background()

	reg, err := client.Register(ctx, &authv1.RegisterRequest{Email: "a@b.com", Password: "Secret123"})
	require.NoError(t, err)
	_, err = client.VerifyEmail(bearer(ctx, reg.OTPToken), &authv1.VerifyEmailRequest{OTP: sink.code()})
	require.NoError(t, err)

	ghost, err := client.ForgotPassword(ctx, &authv1.EmailRequest{Email: "ghost@b.com"})
	require.NoError(t, err)
	forgot, err := client.ForgotPassword(ctx, &authv1.EmailRequest{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, ghost.Message, forgot.Message)

	_, err = client.ResetPassword(bearer(ctx, forgot.OTPToken), &authv1.ResetPasswordRequest{OTP: sink.code(), Password: "Secret123"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.ResetPassword(bearer(ctx, forgot.OTPToken), &authv1.ResetPasswordRequest{OTP: sink.code(), Password: "Other456"})
	require.NoError(t, err)

	_, err = client.Login(ctx, &authv1.LoginRequest{Email: "a@b.com", Password: "Other456"})
	require.NoError(t, err)
}

func TestExternalSignIn_OverGRPC(t *testing.T) {
	s, _ := newTestServer(t)
	client := startBufconn(t, s)
	ctx := context.Background()
	req := &authv1.ExternalSignInRequest{Provider: "google", ProviderAccountID: "g-1", Email: "g@b.com"}

	_, err := client.ExternalSignIn(ctx, req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	keyed := metadata.AppendToOutgoingContext(ctx, common.ServiceKeyHeaderName, testServiceKey)
	pair, err := client.ExternalSignIn(keyed, req)
	require.NoError(t, err)
	assert.True(t, pair.User.EmailVerified)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestPresignAvatarUpload_NotConfigured(t *testing.T) {
	s, _ := newTestServer(t)
	client := startBufconn(t, s)
	ctx := context.Background()

	pair, err := client.ExternalSignIn(metadata.AppendToOutgoingContext(ctx, common.ServiceKeyHeaderName, testServiceKey),
		&authv1.ExternalSignInRequest{Provider: "google", ProviderAccountID: "g-1", Email: "g@b.com"})
	require.NoError(t, err)

	_, err = client.PresignAvatarUpload(bearer(ctx, pair.AccessToken), &authv1.PresignAvatarUploadRequest{ContentType: "image/png"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{&services.Error{Kind: common.ErrorUnauthorized, Msg: "Invalid Token"}, codes.Unauthenticated, "Invalid Token"},
		{&services.Error{Kind: common.ErrorAlreadyExists, Msg: "dup"}, codes.AlreadyExists, "dup"},
		{&services.Error{Kind: common.ErrorInvalidArgument}, codes.InvalidArgument, "invalid argument"},
		{&services.Error{Kind: common.ErrorTimeout}, codes.DeadlineExceeded, "timeout"},
		{&services.Error{Kind: common.ErrorConflict}, codes.Aborted, "conflict, please retry"},
		{&services.Error{Kind: common.ErrorInternal, Err: errors.New("db down")}, codes.Internal, "internal error"},
		{errors.New("raw"), codes.Internal, "internal error"},
	}
	for _, tc := range cases {
		st, ok := status.FromError(toStatus(tc.err))
		require.True(t, ok)
		assert.Equal(t, tc.code, st.Code(), tc.err.Error())
		assert.Equal(t, tc.msg, st.Message())
	}
}
