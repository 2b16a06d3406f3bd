package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewLocatorUnsupportedBackend(t *testing.T) {
	_, err := NewLocator(context.Background(), "carrier-pigeon", []string{"eng"})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("error = %v, want ErrUnsupportedBackend", err)
	}
	if err == nil || !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("error %v does not name the offending backend", err)
	}
}

func TestDisabledLocator(t *testing.T) {
	loc := NewDisabledLocator(errors.New("tesseract data not found"))

	if loc.Name() != "disabled" {
		t.Errorf("Name() = %q, want %q", loc.Name(), "disabled")
	}

	spans, err := loc.Locate(context.Background(), []byte{1, 2, 3})
	if spans != nil {
		t.Errorf("Locate returned spans %v from disabled locator", spans)
	}
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("error = %v, want ErrEngineUnavailable", err)
	}
	if !strings.Contains(err.Error(), "tesseract data not found") {
		t.Errorf("error %v does not carry the initialization failure", err)
	}
}

func TestLocateErrorWrapping(t *testing.T) {
	inner := errors.New("socket closed")
	err := NewLocateError("Locate", ErrLocateFailed, inner.Error())

	if !errors.Is(err, ErrLocateFailed) {
		t.Error("LocateError does not match its sentinel")
	}
	if got := err.Error(); !strings.Contains(got, "Locate") || !strings.Contains(got, "socket closed") {
		t.Errorf("Error() = %q, missing op or details", got)
	}

	var locErr *LocateError
	if !errors.As(err, &locErr) {
		t.Fatal("errors.As failed to recover *LocateError")
	}
	if locErr.Op != "Locate" {
		t.Errorf("Op = %q, want %q", locErr.Op, "Locate")
	}
}

func TestWrapLocateError(t *testing.T) {
	if WrapLocateError("Locate", nil, "") != nil {
		t.Error("wrapping nil did not return nil")
	}

	wrapped := WrapLocateError("Locate", errors.New("boom"), "")
	var locErr *LocateError
	if !errors.As(wrapped, &locErr) {
		t.Fatal("plain error not wrapped")
	}

	if again := WrapLocateError("Outer", wrapped, ""); again != wrapped {
		t.Error("already-wrapped error was wrapped again")
	}
}
