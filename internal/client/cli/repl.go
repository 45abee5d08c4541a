package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	ResendVerify(ctx context.Context) error
	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	ResendForgot(ctx context.Context) error
	Reset(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Avatar(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: register, verify, resend-verify, login, forgot, resend-forgot, reset, help, exit"
	helpSignedIn  = "Available commands: whoami, avatar, logout, forgot, resend-forgot, reset, help, exit"
)

// runREPL reads one command per line and dispatches it. Command errors are
// printed and the loop continues; it ends on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	commands := map[string]func(context.Context) error{
		"register":      a.Register,
		"verify":        a.Verify,
		"resend-verify": a.ResendVerify,
		"login":         a.Login,
		"forgot":        a.Forgot,
		"resend-forgot": a.ResendForgot,
		"reset":         a.Reset,
		"whoami":        a.WhoAmI,
		"avatar":        a.Avatar,
		"logout":        a.Logout,
	}

	for {
		printlnFn(fmt.Sprintf("fintrack%s> ", prefixSpace(statusFn())))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		run, ok := commands[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := run(ctx); err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
