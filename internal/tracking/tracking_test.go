package tracking

import (
	"errors"
	"testing"
)

func TestNewSentry_EmptyDSNIsNop(t *testing.T) {
	reporter, err := NewSentry("", "test", "dev")
	if err != nil {
		t.Fatalf("NewSentry() error = %v", err)
	}
	if _, ok := reporter.(Nop); !ok {
		t.Fatalf("NewSentry(\"\") = %T, want Nop", reporter)
	}
	reporter.Report(errors.New("ignored"))
}

func TestNewSentry_InvalidDSN(t *testing.T) {
	if _, err := NewSentry("not a dsn", "test", "dev"); err == nil {
		t.Error("NewSentry() expected error for invalid DSN, got nil")
	}
}

func TestSentry_ReportNilIsIgnored(t *testing.T) {
	reporter, err := NewSentry("https://public@example.com/1", "test", "dev")
	if err != nil {
		t.Fatalf("NewSentry() error = %v", err)
	}
	reporter.Report(nil)
}
