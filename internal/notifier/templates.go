package notifier

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dmitrijs2005/fintrack/internal/server/notify"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[notify.Kind]mailTemplate{
	notify.KindEmailVerification: {
		subject: "Verify your email",
		body: template.Must(template.New("verify").Parse(
			"Hi {{.FirstName}},\n\nYour verification code is {{.OTP}}.\n")),
	},
	notify.KindWelcome: {
		subject: "Welcome to Fintrack",
		body: template.Must(template.New("welcome").Parse(
			"Hi {{.FirstName}} {{.LastName}},\n\nYour email is verified. Welcome aboard.\n")),
	},
	notify.KindForgotPassword: {
		subject: "Reset your password",
		body: template.Must(template.New("forgot").Parse(
			"Hi {{.FirstName}},\n\nUse {{.OTP}} to reset your password. If this was not you, ignore this email.\n")),
	},
	notify.KindPasswordChanged: {
		subject: "Your password was changed",
		body: template.Must(template.New("changed").Parse(
			"Hi {{.FirstName}},\n\nYour password was just changed. All sessions were signed out.\n")),
	},
}

// Render builds the mail for a job.
func Render(job *notify.Job) (*Mail, error) {
	t, ok := templates[job.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown notification kind %q", job.Kind)
	}
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, job.Payload); err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Kind, err)
	}
	return &Mail{To: job.Payload.Email, Subject: t.subject, Body: buf.String()}, nil
}
