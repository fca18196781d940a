package telegram

import (
	"errors"
	"testing"
)

func TestClassifyErrorMapsKnownDescriptions(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"Bad Request: message is not modified", ErrNotModified},
		{"Bad Request: message to delete not found", ErrNotFound},
		{"Bad Request: message to edit not found", ErrNotFound},
		{"Bad Request: message can't be edited", ErrEditNotAllowed},
	}
	for _, tc := range cases {
		got := ClassifyError(errors.New(tc.raw))
		if !errors.Is(got, tc.want) {
			t.Fatalf("ClassifyError(%q) = %v, want sentinel %v", tc.raw, got, tc.want)
		}
	}
}

func TestClassifyErrorPassesUnknownThrough(t *testing.T) {
	raw := errors.New("Too Many Requests: retry after 30")
	got := ClassifyError(raw)
	if !errors.Is(got, raw) {
		t.Fatalf("expected original error, got %v", got)
	}
	if IsIgnorable(got) {
		t.Fatal("transient error must not be ignorable")
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if err := ClassifyError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsIgnorable(t *testing.T) {
	if !IsIgnorable(ClassifyError(errors.New("message to delete not found"))) {
		t.Fatal("not-found cleanup errors must be ignorable")
	}
	if !IsIgnorable(ClassifyError(errors.New("message can't be edited"))) {
		t.Fatal("edit-not-allowed cleanup errors must be ignorable")
	}
	if IsIgnorable(ClassifyError(errors.New("message is not modified"))) {
		t.Fatal("not-modified is a no-op, not a cleanup skip")
	}
}
