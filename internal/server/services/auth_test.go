package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/avatars"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/notify"
	"github.com/dmitrijs2005/fintrack/internal/server/otp"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/fintrack/internal/server/sessions"
)

type sentJob struct {
	kind    notify.Kind
	payload notify.Payload
}

type recordingSink struct {
	mu   sync.Mutex
	jobs []sentJob
	err  error
}

func (r *recordingSink) Enqueue(_ context.Context, kind notify.Kind, p notify.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, sentJob{kind, p})
	return r.err
}

func (r *recordingSink) last(t *testing.T) sentJob {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.jobs)
	return r.jobs[len(r.jobs)-1]
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

type fakeAvatars struct{}

func (fakeAvatars) PresignUpload(_ context.Context, userID, _ string) (*avatars.Upload, error) {
	return &avatars.Upload{
		UploadURL: "http://s3/put/" + userID,
		ObjectURL: "http://s3/avatars/" + userID + "/a",
	}, nil
}

type fixture struct {
	svc   *AuthService
	store *memory.Store
	codec *auth.Codec
	sink  *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := auth.NewCodec(map[auth.Class]auth.ClassConfig{
		auth.ClassOTP:     {Secret: []byte("otp"), Lifetime: 5 * time.Minute},
		auth.ClassAccess:  {Secret: []byte("access"), Lifetime: 15 * time.Minute},
		auth.ClassRefresh: {Secret: []byte("refresh"), Lifetime: 24 * time.Hour},
	})
	require.NoError(t, err)

	store := memory.NewStore()
	sink := &recordingSink{}
	svc := NewAuthService(
		store, store, codec,
		otp.NewGenerator(5),
		sessions.NewManager(store, 2, 24*time.Hour),
		sink, fakeAvatars{}, logging.Nop(),
		Options{MaxLoginAttempts: 3, BcryptCost: bcrypt.MinCost},
	)
	return &fixture{svc: svc, store: store, codec: codec, sink: sink}
}

func (f *fixture) identity(t *testing.T, token string, class auth.Class) *auth.Payload {
	t.Helper()
	p, err := f.codec.Verify(token, class)
	require.NoError(t, err)
	return p
}

// registerVerified registers a user and completes email verification.
func (f *fixture) registerVerified(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, email, "Ann", "Lee", password)
	require.NoError(t, err)
	code := f.sink.last(t).payload.OTP

	res, err := f.svc.VerifyEmail(ctx, f.identity(t, reg.OTPToken, auth.ClassOTP), code)
	require.NoError(t, err)
	return res
}

func requireFlowError(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	var fe *Error
	require.True(t, errors.As(err, &fe), "want *Error, got %T: %v", err, err)
	assert.ErrorIs(t, err, kind)
	if msg != "" {
		assert.Equal(t, msg, fe.Msg)
	}
}

func TestRegister_IssuesSingleLiveTokenAndBlocksLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, "  Ann@Example.com ", "Ann", "Lee", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.OTPToken)

	p := f.identity(t, res.OTPToken, auth.ClassOTP)
	assert.Equal(t, string(models.PurposeEmail), p.Purpose)

	job := f.sink.last(t)
	assert.Equal(t, notify.KindEmailVerification, job.kind)
	assert.Len(t, job.payload.OTP, 6)

	tok, err := f.store.VerificationTokens(nil).FindAnyLive(ctx, "ann@example.com", models.PurposeEmail, time.Now())
	require.NoError(t, err)
	assert.Equal(t, job.payload.OTP, tok.Code)

	_, err = f.svc.Login(ctx, "ann@example.com", "Secret123")
	requireFlowError(t, err, common.ErrorUnauthorized, msgLoginNotVerified)
}

func TestRegister_StampsTokenCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return issued }

	_, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)

	tok, err := f.store.VerificationTokens(nil).FindAnyLive(ctx, "a@b.com", models.PurposeEmail, issued)
	require.NoError(t, err)
	assert.Equal(t, issued, tok.CreatedAt)
	assert.True(t, tok.ExpiresAt.After(issued))
}

func TestRegister_ReRegisterReplacesTokenThenRejectsDuplicateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	requireFlowError(t, err, common.ErrorAlreadyExists, msgUserExists)
	assert.Equal(t, 1, f.sink.count())
}

func TestVerifyEmail_TwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)
	code := f.sink.last(t).payload.OTP
	id := f.identity(t, reg.OTPToken, auth.ClassOTP)

	first, err := f.svc.VerifyEmail(ctx, id, code)
	require.NoError(t, err)
	assert.True(t, first.User.EmailVerified)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)
	assert.Equal(t, notify.KindWelcome, f.sink.last(t).kind)

	second, err := f.svc.VerifyEmail(ctx, id, code)
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidToken)
	assert.Nil(t, second)

	list, err := f.store.Sessions(nil).ListByUser(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVerifyEmail_WrongCodeAndWrongPurpose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)
	id := f.identity(t, reg.OTPToken, auth.ClassOTP)

	_, err = f.svc.VerifyEmail(ctx, id, "000000")
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidToken)

	wrong := *id
	wrong.Purpose = string(models.PurposePassword)
	_, err = f.svc.VerifyEmail(ctx, &wrong, f.sink.last(t).payload.OTP)
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidToken)
}

func TestLogin_ThirdSessionEvictsOldest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.registerVerified(t, "a@b.com", "Secret123")

	var refresh []string
	for i := 0; i < 2; i++ {
		res, err := f.svc.Login(ctx, "a@b.com", "Secret123")
		require.NoError(t, err)
		refresh = append(refresh, res.RefreshToken)
		time.Sleep(2 * time.Millisecond)
	}

	list, err := f.store.Sessions(nil).ListByUser(ctx, first.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// the session from verification was the oldest
	_, err = f.svc.RefreshToken(ctx, f.identity(t, first.RefreshToken, auth.ClassRefresh))
	requireFlowError(t, err, common.ErrorUnauthorized, msgTokenExpired)

	for _, r := range refresh {
		_, err := f.svc.RefreshToken(ctx, f.identity(t, r, auth.ClassRefresh))
		require.NoError(t, err)
	}
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "Secret123")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, "a@b.com", "wrong")
		requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidLogin)
	}

	u, err := f.store.Users(nil).GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 3, u.LoginAttempts)

	_, err = f.svc.Login(ctx, "a@b.com", "Secret123")
	requireFlowError(t, err, common.ErrorUnauthorized, msgLocked)
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "Secret123")

	_, err := f.svc.Login(ctx, "a@b.com", "wrong")
	require.Error(t, err)

	res, err := f.svc.Login(ctx, "A@B.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, 0, res.User.LoginAttempts)

	_, err = f.svc.Login(ctx, "nobody@b.com", "Secret123")
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidLogin)
}

func TestRefreshToken_ConcurrentRotationSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.registerVerified(t, "a@b.com", "Secret123")
	id := f.identity(t, res.RefreshToken, auth.ClassRefresh)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RefreshToken(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	require.Len(t, errs, 1)
	requireFlowError(t, errs[0], common.ErrorUnauthorized, msgTokenExpired)
}

func TestRefreshToken_RequiresSessionAndUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RefreshToken(ctx, &auth.Payload{ID: "u-1"})
	requireFlowError(t, err, common.ErrorUnauthorized, msgUnauthorized)

	_, err = f.svc.RefreshToken(ctx, &auth.Payload{ID: "missing", SessionToken: "s"})
	requireFlowError(t, err, common.ErrorUnauthorized, msgUnauthorized)
}

func TestResetPassword_SameThenDifferent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signedIn := f.registerVerified(t, "a@b.com", "Secret123")

	forgot, err := f.svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	job := f.sink.last(t)
	assert.Equal(t, notify.KindForgotPassword, job.kind)
	id := f.identity(t, forgot.OTPToken, auth.ClassOTP)
	assert.Equal(t, string(models.PurposePassword), id.Purpose)

	err = f.svc.ResetPassword(ctx, id, job.payload.OTP, "Secret123")
	requireFlowError(t, err, common.ErrorAlreadyExists, msgSamePassword)

	require.NoError(t, f.svc.ResetPassword(ctx, id, job.payload.OTP, "Other456"))
	assert.Equal(t, notify.KindPasswordChanged, f.sink.last(t).kind)

	_, err = f.svc.RefreshToken(ctx, f.identity(t, signedIn.RefreshToken, auth.ClassRefresh))
	requireFlowError(t, err, common.ErrorUnauthorized, msgTokenExpired)

	_, err = f.svc.Login(ctx, "a@b.com", "Secret123")
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidLogin)
	_, err = f.svc.Login(ctx, "a@b.com", "Other456")
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, id, job.payload.OTP, "Third789")
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidOTP)
}

func TestResetPassword_UnlocksAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "Secret123")
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "a@b.com", "wrong")
	}

	forgot, err := f.svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	code := f.sink.last(t).payload.OTP
	require.NoError(t, f.svc.ResetPassword(ctx, f.identity(t, forgot.OTPToken, auth.ClassOTP), code, "Other456"))

	_, err = f.svc.Login(ctx, "a@b.com", "Other456")
	require.NoError(t, err)
}

func TestResend_ThrottlesWhileLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)
	firstCode := f.sink.last(t).payload.OTP

	_, err = f.svc.ResendVerifyEmailToken(ctx, "a@b.com")
	requireFlowError(t, err, common.ErrorAlreadyExists, "Please retry in 5 minutes")

	f.svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	res, err := f.svc.ResendVerifyEmailToken(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.OTPToken)

	job := f.sink.last(t)
	assert.Equal(t, notify.KindEmailVerification, job.kind)

	_, err = f.store.VerificationTokens(nil).FindLive(ctx, "a@b.com", models.PurposeEmail, firstCode, time.Now())
	if firstCode != job.payload.OTP {
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
}

func TestResendForgot_ThrottlesAfterForgot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerVerified(t, "a@b.com", "Secret123")

	_, err := f.svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)

	_, err = f.svc.ResendForgotPasswordToken(ctx, "a@b.com")
	requireFlowError(t, err, common.ErrorAlreadyExists, "Please retry in 5 minutes")
}

func TestUnknownEmail_DoesNotLeak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context, string) (*OTPResult, error){
		"forgot":        f.svc.ForgotPassword,
		"resend-verify": f.svc.ResendVerifyEmailToken,
		"resend-forgot": f.svc.ResendForgotPasswordToken,
	} {
		res, err := fn(ctx, "ghost@b.com")
		require.NoError(t, err, name)
		assert.NotEmpty(t, res.OTPToken, name)
		assert.Nil(t, res.User, name)
	}
	assert.Equal(t, 0, f.sink.count())
}

func TestNotificationFailureDoesNotFailFlow(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("redis down")

	_, err := f.svc.Register(context.Background(), "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, 1, f.sink.count())
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(ctx, &auth.Payload{ID: reg.User.ID})
	requireFlowError(t, err, common.ErrorUnauthorized, msgPleaseVerifyEmail)

	_, err = f.svc.ValidateToken(ctx, &auth.Payload{ID: "missing"})
	requireFlowError(t, err, common.ErrorUnauthorized, msgUnauthorized)

	res := f.registerVerified(t, "c@d.com", "Secret123")
	u, err := f.svc.ValidateToken(ctx, f.identity(t, res.AccessToken, auth.ClassAccess))
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", u.Email)
}

func TestExternalSignIn_CreatesThenReusesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := ExternalIdentity{
		Provider: "google", ProviderAccountID: "g-1", Email: "G@b.com", FirstName: "G", LastName: "H",
	}

	first, err := f.svc.ExternalSignIn(ctx, in)
	require.NoError(t, err)
	assert.True(t, first.User.EmailVerified)
	assert.Empty(t, first.User.PasswordHash)

	acc, err := f.store.Accounts(nil).Find(ctx, models.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, acc.UserID)

	second, err := f.svc.ExternalSignIn(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = f.svc.Login(ctx, "g@b.com", "anything")
	requireFlowError(t, err, common.ErrorUnauthorized, msgInvalidLogin)
}

func TestExternalSignIn_LinksAndVerifiesExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@b.com", "A", "B", "Secret123")
	require.NoError(t, err)

	res, err := f.svc.ExternalSignIn(ctx, ExternalIdentity{Provider: "GOOGLE", ProviderAccountID: "g-2", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.True(t, res.User.EmailVerified)

	_, err = f.svc.Login(ctx, "a@b.com", "Secret123")
	require.NoError(t, err)

	_, err = f.svc.ExternalSignIn(ctx, ExternalIdentity{Provider: "GOOGLE", Email: "a@b.com"})
	requireFlowError(t, err, common.ErrorInvalidArgument, "")
}

func TestPresignAvatarUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.registerVerified(t, "a@b.com", "Secret123")
	id := f.identity(t, res.AccessToken, auth.ClassAccess)

	_, err := f.svc.PresignAvatarUpload(ctx, id, "text/plain")
	requireFlowError(t, err, common.ErrorInvalidArgument, "")

	up, err := f.svc.PresignAvatarUpload(ctx, id, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://s3/put/"+id.ID, up.UploadURL)

	u, err := f.store.Users(nil).GetByID(ctx, id.ID)
	require.NoError(t, err)
	assert.Equal(t, up.ObjectURL, u.Avatar)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(common.ErrorTimeout), common.ErrorTimeout)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), common.ErrorTimeout)
	assert.ErrorIs(t, classify(common.ErrorConflict), common.ErrorConflict)
	assert.ErrorIs(t, classify(errors.New("boom")), common.ErrorInternal)
	assert.Nil(t, classify(nil))

	fe := unauthenticated("x")
	assert.Same(t, fe, classify(fe))
	assert.Equal(t, "x", fe.Error())
	assert.Equal(t, common.ErrorInternal.Error(), (&Error{Kind: common.ErrorInternal}).Error())
}
