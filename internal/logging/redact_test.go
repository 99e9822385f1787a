package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactorLiterals(t *testing.T) {
	r := NewRedactor("hunter2", "")
	got := r.Redact("password is hunter2, again hunter2")
	want := "password is ***REDACTED***, again ***REDACTED***"
	if got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}

func TestRedactorBotTokenPattern(t *testing.T) {
	r := NewRedactor()
	in := "Post https://api.telegram.org/bot123456789:AAFcq9poKkmqwervDELKJqwermlQWERmlqw/sendMessage: timeout"
	got := r.Redact(in)
	if strings.Contains(got, "123456789:") {
		t.Errorf("Redact() left token in %q", got)
	}
	if !strings.Contains(got, RedactPlaceholder) {
		t.Errorf("Redact() = %q, want placeholder present", got)
	}
}

func TestRedactingHandlerMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h := NewRedactingHandler(inner, NewRedactor("s3cret"))
	logger := slog.New(h)

	logger.Info("auth failed with s3cret", "detail", "used s3cret here", "err", errors.New("dial with s3cret"))

	out := buf.String()
	if strings.Contains(out, "s3cret") {
		t.Errorf("log output leaked secret: %q", out)
	}
	if got, want := strings.Count(out, RedactPlaceholder), 3; got != want {
		t.Errorf("placeholder count = %d, want %d: %q", got, want, out)
	}
}

func TestRedactingHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	h := NewRedactingHandler(inner, NewRedactor("s3cret"))
	logger := slog.New(h).With("token", "s3cret")

	logger.Info("hello")

	out := buf.String()
	if strings.Contains(out, "s3cret") {
		t.Errorf("With() attr leaked secret: %q", out)
	}
}

func TestRedactingHandlerEnabled(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewRedactingHandler(inner, NewRedactor())
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(Info) = true, want false with Warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(Error) = false, want true")
	}
}
