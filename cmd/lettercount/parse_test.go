package main

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
)

func TestParseArgsPositional(t *testing.T) {
	parsed, err := parseArgs([]string{"-config", " settings.yaml ", "in", "out"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.SourceDir != "in" || parsed.ResultDir != "out" {
		t.Fatalf("unexpected dirs %#v", parsed)
	}
	if parsed.ConfigPath != "settings.yaml" {
		t.Fatalf("unexpected config path %q", parsed.ConfigPath)
	}
}

func TestParseArgsWrongCountPrintsUsage(t *testing.T) {
	for _, args := range [][]string{{}, {"only"}, {"a", "b", "c"}} {
		var errOut bytes.Buffer
		_, err := parseArgs(args, &errOut)
		if !errors.Is(err, errUsage) {
			t.Fatalf("args %v: expected usage error, got %v", args, err)
		}
		if !strings.Contains(errOut.String(), "Usage: "+usageLine) {
			t.Fatalf("args %v: expected usage output, got %q", args, errOut.String())
		}
	}
}

func TestParseArgsHelp(t *testing.T) {
	var errOut bytes.Buffer
	_, err := parseArgs([]string{"--help"}, &errOut)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(errOut.String(), "--config") {
		t.Fatalf("expected options in help, got %q", errOut.String())
	}
}

func TestParseArgsVersion(t *testing.T) {
	parsed, err := parseArgs([]string{"-v"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.ShowVersion {
		t.Fatalf("expected version request")
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus", "a", "b"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}
