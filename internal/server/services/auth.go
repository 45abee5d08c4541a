// Package services contains server-side business logic. This file implements
// AuthService, which runs the registration, verification, login, reset and
// refresh flows. Every flow is one unit of work on the transaction runner;
// notifications are enqueued only after the unit commits.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/avatars"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/notify"
	"github.com/dmitrijs2005/fintrack/internal/server/otp"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fintrack/internal/server/sessions"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// AvatarStore issues upload URLs for profile pictures.
type AvatarStore interface {
	PresignUpload(ctx context.Context, userID, contentType string) (*avatars.Upload, error)
}

type Options struct {
	MaxLoginAttempts int
	BcryptCost       int
	// NotifyTimeout bounds a single post-commit enqueue.
	NotifyTimeout time.Duration
}

// OTPResult is returned by flows that mail a code. OTPToken authorizes the
// follow-up VerifyEmail or ResetPassword call.
type OTPResult struct {
	User     *models.User
	OTPToken string
}

// AuthResult is a signed-in user with a token pair bound to a fresh session.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// ExternalIdentity is an identity already confirmed by an external provider.
type ExternalIdentity struct {
	Provider          string
	ProviderAccountID string
	Email             string
	FirstName         string
	LastName          string
	Avatar            string
}

type AuthService struct {
	runner      dbx.TxRunner
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	otp         *otp.Generator
	sessions    *sessions.Manager
	sink        notify.Sink
	avatars     AvatarStore
	logger      logging.Logger
	opts        Options
	now         func() time.Time
}

func NewAuthService(
	runner dbx.TxRunner,
	m repomanager.RepositoryManager,
	codec *auth.Codec,
	gen *otp.Generator,
	sm *sessions.Manager,
	sink notify.Sink,
	store AvatarStore,
	logger logging.Logger,
	opts Options,
) *AuthService {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = 3
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 2 * time.Second
	}
	return &AuthService{
		runner:      runner,
		repomanager: m,
		codec:       codec,
		otp:         gen,
		sessions:    sm,
		sink:        sink,
		avatars:     store,
		logger:      logger.With("module", "auth"),
		opts:        opts,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func payloadFor(u *models.User) auth.Payload {
	return auth.Payload{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
	}
}

func (s *AuthService) run(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	err := classify(s.runner.InTx(ctx, fn))
	var fe *Error
	if errors.As(err, &fe) && fe.Err != nil {
		s.logger.Error(ctx, "unit of work failed", "kind", fe.Kind, "error", fe.Err)
	}
	return err
}

// notify runs after commit and never fails the caller.
func (s *AuthService) notify(ctx context.Context, kind notify.Kind, p notify.Payload) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()
	if err := s.sink.Enqueue(ctx, kind, p); err != nil {
		s.logger.Warn(ctx, "enqueue notification failed", "kind", kind, "error", err)
	}
}

// issueCode replaces any token for (email, purpose) with a fresh one.
func (s *AuthService) issueCode(ctx context.Context, tx dbx.DBTX, email string, purpose models.Purpose) (*models.VerificationToken, error) {
	repo := s.repomanager.VerificationTokens(tx)
	if err := repo.Purge(ctx, email, purpose); err != nil {
		return nil, err
	}
	code, err := s.otp.Next()
	if err != nil {
		return nil, fmt.Errorf("otp: %w", err)
	}
	now := s.now()
	t := &models.VerificationToken{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: s.otp.ExpiryFrom(now),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *AuthService) signOTP(u *models.User, purpose models.Purpose) (string, error) {
	p := payloadFor(u)
	p.Purpose = string(purpose)
	return s.codec.Sign(p, auth.ClassOTP)
}

// signIn creates a session and signs a token pair bound to it.
func (s *AuthService) signIn(ctx context.Context, tx dbx.DBTX, u *models.User, oldSessionToken string) (*AuthResult, error) {
	sess, err := s.sessions.CreateOrRotate(ctx, tx, u.ID, oldSessionToken)
	if err != nil {
		return nil, err
	}

	p := payloadFor(u)
	access, err := s.codec.Sign(p, auth.ClassAccess)
	if err != nil {
		return nil, err
	}
	p.SessionToken = sess.SessionToken
	refresh, err := s.codec.Sign(p, auth.ClassRefresh)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Register(ctx context.Context, email, firstName, lastName, password string) (*OTPResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidArgument("email and password are required")
	}

	hash, err := auth.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return nil, classify(err)
	}

	var (
		res  OTPResult
		code string
	)
	err = s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Upsert(ctx, &models.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return alreadyExists(msgUserExists)
			}
			return err
		}

		err = s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			ID:                uuid.NewString(),
			UserID:            u.ID,
			Type:              models.AccountTypeCredentials,
			Provider:          models.ProviderLocal,
			ProviderAccountID: email,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return alreadyExists(msgUserExists)
			}
			return err
		}

		t, err := s.issueCode(ctx, tx, email, models.PurposeEmail)
		if err != nil {
			return err
		}
		token, err := s.signOTP(u, models.PurposeEmail)
		if err != nil {
			return err
		}

		res = OTPResult{User: u, OTPToken: token}
		code = t.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notify.KindEmailVerification, notify.Payload{
		Email: email, OTP: code, FirstName: res.User.FirstName, LastName: res.User.LastName,
	})
	return &res, nil
}

// VerifyEmail consumes the EMAIL code mailed to the identity's address and
// signs the user in.
func (s *AuthService) VerifyEmail(ctx context.Context, identity *auth.Payload, code string) (*AuthResult, error) {
	if identity.Purpose != "" && identity.Purpose != string(models.PurposeEmail) {
		return nil, unauthenticated(msgInvalidToken)
	}
	email := normalizeEmail(identity.Email)

	var res *AuthResult
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()
		tokens := s.repomanager.VerificationTokens(tx)

		t, err := tokens.FindLive(ctx, email, models.PurposeEmail, code, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgInvalidToken)
			}
			return err
		}

		users := s.repomanager.Users(tx)
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgInvalidToken)
			}
			return err
		}
		if u.EmailVerified {
			return unauthenticated(msgAlreadyVerified)
		}

		if err := tokens.Delete(ctx, t.ID); err != nil {
			return err
		}
		if err := users.MarkVerified(ctx, u.ID, now); err != nil {
			return err
		}
		u.EmailVerified = true
		u.EmailVerifiedAt = &now

		res, err = s.signIn(ctx, tx, u, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notify.KindWelcome, notify.Payload{
		Email: res.User.Email, FirstName: res.User.FirstName, LastName: res.User.LastName,
	})
	return res, nil
}

// reissue backs the resend and forgot-password flows. An unknown address gets
// a token for a throwaway identity, so the response does not reveal whether
// the account exists. With throttle set, a live code yields the retry message.
func (s *AuthService) reissue(ctx context.Context, email string, purpose models.Purpose, throttle bool, kind notify.Kind) (*OTPResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalidArgument("email is required")
	}

	var (
		res  OTPResult
		code string
	)
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			token, err := s.signOTP(&models.User{ID: uuid.NewString(), Email: email}, purpose)
			res = OTPResult{OTPToken: token}
			return err
		}
		if err != nil {
			return err
		}

		tokens := s.repomanager.VerificationTokens(tx)
		if throttle {
			now := s.now()
			live, err := tokens.FindAnyLive(ctx, email, purpose, now)
			switch {
			case err == nil:
				return alreadyExists(fmt.Sprintf("Please retry in %d minutes", timex.MinutesUntil(now, live.ExpiresAt)))
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}

		t, err := s.issueCode(ctx, tx, email, purpose)
		if err != nil {
			return err
		}
		token, err := s.signOTP(u, purpose)
		if err != nil {
			return err
		}
		res = OTPResult{User: u, OTPToken: token}
		code = t.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.User != nil {
		s.notify(ctx, kind, notify.Payload{
			Email: email, OTP: code, FirstName: res.User.FirstName, LastName: res.User.LastName,
		})
	}
	return &res, nil
}

func (s *AuthService) ResendVerifyEmailToken(ctx context.Context, email string) (*OTPResult, error) {
	return s.reissue(ctx, email, models.PurposeEmail, true, notify.KindEmailVerification)
}

func (s *AuthService) ResendForgotPasswordToken(ctx context.Context, email string) (*OTPResult, error) {
	return s.reissue(ctx, email, models.PurposePassword, true, notify.KindForgotPassword)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*OTPResult, error) {
	return s.reissue(ctx, email, models.PurposePassword, false, notify.KindForgotPassword)
}

// Login checks credentials. A wrong password is counted and the count is
// committed before the failure is returned; once the count reaches the
// configured maximum the account stays locked until a password reset.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	var (
		res         *AuthResult
		badPassword bool
	)
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgInvalidLogin)
			}
			return err
		}
		if u.PasswordHash == "" {
			return unauthenticated(msgInvalidLogin)
		}
		if u.LoginAttempts >= s.opts.MaxLoginAttempts {
			return unauthenticated(msgLocked)
		}

		ok, err := auth.ComparePassword(u.PasswordHash, password)
		if err != nil {
			return err
		}
		if !ok {
			badPassword = true
			return users.SetLoginAttempts(ctx, u.ID, u.LoginAttempts+1)
		}

		if u.LoginAttempts > 0 {
			if err := users.SetLoginAttempts(ctx, u.ID, 0); err != nil {
				return err
			}
			u.LoginAttempts = 0
		}
		if !u.EmailVerified {
			return unauthenticated(msgLoginNotVerified)
		}

		res, err = s.signIn(ctx, tx, u, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	if badPassword {
		return nil, unauthenticated(msgInvalidLogin)
	}
	return res, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, identity *auth.Payload, code, newPassword string) error {
	if identity.Purpose != "" && identity.Purpose != string(models.PurposePassword) {
		return unauthenticated(msgInvalidOTP)
	}
	if newPassword == "" {
		return invalidArgument("password is required")
	}
	email := normalizeEmail(identity.Email)

	var u *models.User
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.VerificationTokens(tx)
		t, err := tokens.FindLive(ctx, email, models.PurposePassword, code, s.now())
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgInvalidOTP)
			}
			return err
		}

		users := s.repomanager.Users(tx)
		u, err = users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgInvalidOTP)
			}
			return err
		}

		same, err := auth.ComparePassword(u.PasswordHash, newPassword)
		if err != nil {
			return err
		}
		if same {
			return alreadyExists(msgSamePassword)
		}

		hash, err := auth.HashPassword(newPassword, s.opts.BcryptCost)
		if err != nil {
			return err
		}
		if err := tokens.Delete(ctx, t.ID); err != nil {
			return err
		}
		if err := users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return err
		}
		return s.sessions.DropAll(ctx, tx, u.ID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, notify.KindPasswordChanged, notify.Payload{
		Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
	})
	return nil
}

// RefreshToken redeems the session bound to a refresh token and signs a new
// pair bound to its replacement. A session can be redeemed once.
func (s *AuthService) RefreshToken(ctx context.Context, identity *auth.Payload) (*AuthResult, error) {
	if identity.SessionToken == "" {
		return nil, unauthenticated(msgUnauthorized)
	}

	var res *AuthResult
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).GetByID(ctx, identity.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgUnauthorized)
			}
			return err
		}

		res, err = s.signIn(ctx, tx, u, identity.SessionToken)
		if errors.Is(err, sessions.ErrSessionExpired) {
			return unauthenticated(msgTokenExpired)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ValidateToken re-reads the user behind an access token.
func (s *AuthService) ValidateToken(ctx context.Context, identity *auth.Payload) (*models.User, error) {
	var u *models.User
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = s.repomanager.Users(tx).GetByID(ctx, identity.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return unauthenticated(msgUnauthorized)
			}
			return err
		}
		if !u.EmailVerified {
			return unauthenticated(msgPleaseVerifyEmail)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ExternalSignIn turns an identity confirmed by a provider into a local
// session, creating and linking the user on first sight.
func (s *AuthService) ExternalSignIn(ctx context.Context, in ExternalIdentity) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if in.Provider == "" || in.ProviderAccountID == "" || email == "" {
		return nil, invalidArgument("provider, provider account id and email are required")
	}
	provider := strings.ToUpper(in.Provider)

	var res *AuthResult
	err := s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()
		users := s.repomanager.Users(tx)
		accounts := s.repomanager.Accounts(tx)

		var u *models.User
		acc, err := accounts.Find(ctx, provider, in.ProviderAccountID)
		switch {
		case err == nil:
			u, err = users.GetByID(ctx, acc.UserID)
			if err != nil {
				return err
			}
		case errors.Is(err, common.ErrorNotFound):
			u, err = users.GetByEmail(ctx, email)
			if errors.Is(err, common.ErrorNotFound) {
				u, err = users.Create(ctx, &models.User{
					ID:              uuid.NewString(),
					Email:           email,
					FirstName:       in.FirstName,
					LastName:        in.LastName,
					Avatar:          in.Avatar,
					EmailVerified:   true,
					EmailVerifiedAt: &now,
				})
			}
			if err != nil {
				return err
			}
			err = accounts.Create(ctx, &models.Account{
				ID:                uuid.NewString(),
				UserID:            u.ID,
				Type:              models.AccountTypeOAuth,
				Provider:          provider,
				ProviderAccountID: in.ProviderAccountID,
			})
			if err != nil {
				return err
			}
		default:
			return err
		}

		if !u.EmailVerified {
			if err := users.MarkVerified(ctx, u.ID, now); err != nil {
				return err
			}
			u.EmailVerified = true
			u.EmailVerifiedAt = &now
		}

		res, err = s.signIn(ctx, tx, u, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PresignAvatarUpload issues an upload URL for a new avatar and records the
// object URL on the user.
func (s *AuthService) PresignAvatarUpload(ctx context.Context, identity *auth.Payload, contentType string) (*avatars.Upload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalidArgument("content type must be an image")
	}
	if s.avatars == nil {
		return nil, &Error{Kind: common.ErrorInternal, Msg: "avatar uploads are not configured"}
	}

	up, err := s.avatars.PresignUpload(ctx, identity.ID, contentType)
	if err != nil {
		return nil, classify(err)
	}

	err = s.run(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		err := s.repomanager.Users(tx).UpdateAvatar(ctx, identity.ID, up.ObjectURL)
		if errors.Is(err, common.ErrorNotFound) {
			return unauthenticated(msgUnauthorized)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return up, nil
}
