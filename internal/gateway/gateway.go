// Package gateway is the public HTTP face of the auth service. It validates
// request bodies, forwards them over gRPC and manages the token cookies.
package gateway

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"google.golang.org/grpc/metadata"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/gateway/config"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const (
	refreshCookie = "refresh-token"
	accessCookie  = "access-token"

	serviceKeyHeader = "X-Service-Key"
)

type Gateway struct {
	client authv1.AuthServiceClient
	cfg    *config.Config
	logger logging.Logger
}

func New(client authv1.AuthServiceClient, cfg *config.Config, l logging.Logger) *Gateway {
	return &Gateway{client: client, cfg: cfg, logger: l.With("module", "gateway")}
}

// Router builds the gin engine with every /auth route and /metrics.
func (g *Gateway) Router() (*gin.Engine, error) {
	if err := registerValidations(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), g.requestLogger())

	p := ginprometheus.NewPrometheus("gin")
	p.Use(r)

	a := r.Group("/auth")
	a.POST("/register", g.register)
	a.POST("/verify-email", g.verifyEmail)
	a.POST("/resend-verify-email", g.resendVerifyEmail)
	a.POST("/login", g.login)
	a.POST("/forgot-password", g.forgotPassword)
	a.POST("/resend-forgot-password", g.resendForgotPassword)
	a.POST("/reset-password", g.resetPassword)
	a.POST("/refresh", g.refresh)
	a.GET("/me", g.me)
	a.POST("/logout", g.logout)
	a.POST("/avatar", g.avatar)
	a.POST("/oauth/google", g.requireServiceKey(), g.googleSignIn)

	return r, nil
}

func (g *Gateway) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		g.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// requireServiceKey admits only trusted backends, such as the web app's
// OAuth callback, that present the shared service key.
func (g *Gateway) requireServiceKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(serviceKeyHeader)
		if g.cfg.ServiceKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(g.cfg.ServiceKey)) != 1 {
			abort(c, http.StatusUnauthorized, "invalid service key")
			return
		}
		c.Next()
	}
}

func (g *Gateway) userCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), g.cfg.UserTimeout.Duration)
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.TokenHeaderName, token)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (g *Gateway) setTokenCookies(c *gin.Context, pair *authv1.TokenPairResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, pair.RefreshToken, int(g.cfg.RefreshTokenLifetime.Seconds()), "/", "", g.cfg.Production, true)
	c.SetCookie(accessCookie, pair.AccessToken, int(g.cfg.AccessTokenLifetime.Seconds()), "/", "", g.cfg.Production, true)
}

func (g *Gateway) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", g.cfg.Production, true)
	c.SetCookie(accessCookie, "", -1, "/", "", g.cfg.Production, true)
}

func (g *Gateway) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	res, err := g.client.Register(ctx, &authv1.RegisterRequest{
		Email: body.Email, FirstName: body.FirstName, LastName: body.LastName, Password: body.Password,
	})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (g *Gateway) verifyEmail(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}
	var body otpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	pair, err := g.client.VerifyEmail(withToken(ctx, token), &authv1.VerifyEmailRequest{OTP: body.OTP})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	g.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (g *Gateway) sendCode(c *gin.Context, call func(context.Context, *authv1.EmailRequest) (*authv1.OTPTokenResponse, error)) {
	var body emailBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	res, err := call(ctx, &authv1.EmailRequest{Email: body.Email})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (g *Gateway) resendVerifyEmail(c *gin.Context) {
	g.sendCode(c, func(ctx context.Context, in *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
		return g.client.ResendVerifyEmailToken(ctx, in)
	})
}

func (g *Gateway) forgotPassword(c *gin.Context) {
	g.sendCode(c, func(ctx context.Context, in *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
		return g.client.ForgotPassword(ctx, in)
	})
}

func (g *Gateway) resendForgotPassword(c *gin.Context) {
	g.sendCode(c, func(ctx context.Context, in *authv1.EmailRequest) (*authv1.OTPTokenResponse, error) {
		return g.client.ResendForgotPasswordToken(ctx, in)
	})
}

func (g *Gateway) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	pair, err := g.client.Login(ctx, &authv1.LoginRequest{Email: body.Email, Password: body.Password})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	g.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (g *Gateway) resetPassword(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}
	var body resetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	res, err := g.client.ResetPassword(withToken(ctx, token), &authv1.ResetPasswordRequest{OTP: body.OTP, Password: body.Password})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	g.clearTokenCookies(c)
	c.JSON(http.StatusOK, res)
}

func (g *Gateway) refresh(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var body refreshBody
		_ = c.ShouldBindJSON(&body)
		token = body.RefreshToken
	}
	if token == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	pair, err := g.client.RefreshToken(withToken(ctx, token), &authv1.RefreshTokenRequest{})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	g.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (g *Gateway) accessToken(c *gin.Context) string {
	if t := bearerToken(c); t != "" {
		return t
	}
	t, _ := c.Cookie(accessCookie)
	return t
}

func (g *Gateway) me(c *gin.Context) {
	token := g.accessToken(c)
	if token == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), g.cfg.ValidateTimeout.Duration)
	defer cancel()

	res, err := g.client.ValidateToken(withToken(ctx, token), &authv1.ValidateTokenRequest{})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (g *Gateway) logout(c *gin.Context) {
	g.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (g *Gateway) avatar(c *gin.Context) {
	token := g.accessToken(c)
	if token == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}
	var body avatarBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()

	res, err := g.client.PresignAvatarUpload(withToken(ctx, token), &authv1.PresignAvatarUploadRequest{ContentType: body.ContentType})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (g *Gateway) googleSignIn(c *gin.Context) {
	var body externalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	ctx, cancel := g.userCtx(c)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, common.ServiceKeyHeaderName, g.cfg.ServiceKey)

	pair, err := g.client.ExternalSignIn(ctx, &authv1.ExternalSignInRequest{
		Provider:          "GOOGLE",
		ProviderAccountID: body.ProviderAccountID,
		Email:             body.Email,
		FirstName:         body.FirstName,
		LastName:          body.LastName,
		Avatar:            body.Avatar,
	})
	if err != nil {
		writeRPCError(c, err)
		return
	}
	g.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}
