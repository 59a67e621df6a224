package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	err := New(RemoteService, "recognize full", context.DeadlineExceeded, "timeout 60s")

	if !errors.Is(err, ErrRemoteService) {
		t.Fatalf("expected errors.Is(err, ErrRemoteService)")
	}
	if errors.Is(err, ErrDetection) {
		t.Fatalf("remote failure must not match the detection sentinel")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the wrapped cause to stay reachable")
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("image 'a.jpg': %w", Newf(Normalization, "parse", "line length %d", 40))

	kind, ok := KindOf(wrapped)
	if !ok || kind != Normalization {
		t.Fatalf("KindOf = %q, %v; want %q, true", kind, ok, Normalization)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestErrorString(t *testing.T) {
	err := Newf(BadInput, "upload", "no files")
	got := err.Error()
	for _, part := range []string{"BAD_INPUT", "upload", "no files", ErrBadInput.Error()} {
		if !strings.Contains(got, part) {
			t.Errorf("Error() = %q, missing %q", got, part)
		}
	}
}
