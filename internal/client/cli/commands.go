package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/common"
)

// Swapped in tests.
var (
	readLine   = ReadLine
	readSecret = ReadSecret
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) ask(prompt string) (string, error) {
	return readLine(a.reader, a.out, prompt)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// newPassword asks twice and returns the password once both entries match.
func (a *App) newPassword() (string, error) {
	first, err := readSecret(a.out, "Password")
	if err != nil {
		return "", err
	}
	defer common.Wipe(first)

	second, err := readSecret(a.out, "Repeat password")
	if err != nil {
		return "", err
	}
	defer common.Wipe(second)

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}

func (a *App) printUser(u *authv1.User) {
	if u == nil {
		return
	}
	verified := "not verified"
	if u.EmailVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "%s %s <%s> (%s)\n", u.FirstName, u.LastName, u.Email, verified)
}

func (a *App) Register(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	first, err := a.ask("First name")
	if err != nil {
		return err
	}
	last, err := a.ask("Last name")
	if err != nil {
		return err
	}
	password, err := a.newPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.Register(ctx, email, first, last, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	fmt.Fprintln(a.out, "Run 'verify' with the code from the email.")
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	code, err := a.ask("Code from the email")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.VerifyEmail(ctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified, you are signed in.")
	a.printUser(user)
	return nil
}

func (a *App) resend(ctx context.Context, call func(context.Context, string) (string, error)) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := call(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) ResendVerify(ctx context.Context) error {
	return a.resend(ctx, a.client.ResendVerifyEmail)
}

func (a *App) Forgot(ctx context.Context) error {
	if err := a.resend(ctx, a.client.ForgotPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Run 'reset' with the code from the email.")
	return nil
}

func (a *App) ResendForgot(ctx context.Context) error {
	return a.resend(ctx, a.client.ResendForgotPassword)
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	password, err := readSecret(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.Wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	a.printUser(user)
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	code, err := a.ask("Code from the email")
	if err != nil {
		return err
	}
	password, err := a.newPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ResetPassword(ctx, code, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	fmt.Fprintln(a.out, "All sessions were signed out, please login.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.WhoAmI(ctx)
	if err != nil {
		return err
	}
	a.printUser(user)
	return nil
}

func (a *App) Avatar(ctx context.Context) error {
	path, err := a.ask("Image file")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	url, err := a.client.UploadAvatar(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar uploaded:", url)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
