package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"acme\n", true},
		{"  acme  \n", true},
		{"acme", true},
		{"ACME\n", false},
		{"y\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(tt.input), &out, "acme")
		if err != nil {
			t.Fatalf("confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), `"acme"`) {
			t.Errorf("prompt does not name the tenant: %q", out.String())
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := runAdmin([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown admin command")
	}
	if err := runAdmin(nil); err != nil {
		t.Fatalf("admin help: %v", err)
	}
}

func TestWarnStaleCache(t *testing.T) {
	var out bytes.Buffer
	warnStaleCache(&out, "acme", time.Minute)

	got := out.String()
	for _, want := range []string{"NATS_URL", "acme", "1m0s"} {
		if !strings.Contains(got, want) {
			t.Errorf("warning %q does not mention %q", got, want)
		}
	}
}
