package authv1

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Avatar        string `json:"avatar,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

// OTPTokenResponse carries the token that authorizes the follow-up
// VerifyEmail or ResetPassword call.
type OTPTokenResponse struct {
	Message  string `json:"message"`
	OTPToken string `json:"otpToken"`
}

type VerifyEmailRequest struct {
	OTP string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPairResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ResetPasswordRequest struct {
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RefreshTokenRequest is empty; the refresh token travels in metadata.
type RefreshTokenRequest struct{}

type ValidateTokenRequest struct{}

type ValidateTokenResponse struct {
	User *User `json:"user"`
}

type PresignAvatarUploadRequest struct {
	ContentType string `json:"contentType"`
}

type PresignAvatarUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectURL string `json:"objectUrl"`
}

type ExternalSignInRequest struct {
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Avatar            string `json:"avatar,omitempty"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
