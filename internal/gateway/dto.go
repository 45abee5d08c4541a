package gateway

type registerBody struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Password  string `json:"password" binding:"required,password"`
}

type emailBody struct {
	Email string `json:"email" binding:"required,email"`
}

type otpBody struct {
	OTP string `json:"otp" binding:"required,len=6,numeric"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetBody struct {
	OTP      string `json:"otp" binding:"required,len=6,numeric"`
	Password string `json:"password" binding:"required,password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type externalBody struct {
	ProviderAccountID string `json:"providerAccountId" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Avatar            string `json:"avatar" binding:"omitempty,url"`
}

type avatarBody struct {
	ContentType string `json:"contentType" binding:"required,startswith=image/"`
}
