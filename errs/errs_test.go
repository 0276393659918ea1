/*
NAME
  errs_test.go

DESCRIPTION
  errs_test.go contains testing for functionality found in errs.go.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package errs

import (
	"errors"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Other, "other"},
		{InvalidInput, "invalid input"},
		{Unsupported, "unsupported"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.want {
			t.Errorf("Kind(%d).String() = %q, want %q", test.kind, got, test.want)
		}
	}
}

func TestNewAndError(t *testing.T) {
	err := New(InvalidInput, "bad thing")
	want := "invalid input: bad thing"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(Unsupported, "profile %d not supported", 100)
	want := "unsupported: profile 100 not supported"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Other, cause, "writing box header")
	want := "other: writing box header: disk full"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("Wrap(): errors.Is(err, cause) = false, want true")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(Other, nil, "msg"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("eof")
	err := Wrapf(InvalidInput, cause, "reading %s", "sps")
	want := "invalid input: reading sps: eof"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(Unsupported, "x")); got != Unsupported {
		t.Errorf("KindOf() = %v, want %v", got, Unsupported)
	}
	if got := KindOf(errors.New("plain")); got != Other {
		t.Errorf("KindOf(plain error) = %v, want %v", got, Other)
	}
	if got := KindOf(Wrap(InvalidInput, errors.New("x"), "m")); got != InvalidInput {
		t.Errorf("KindOf(wrapped) = %v, want %v", got, InvalidInput)
	}
}

func TestIs(t *testing.T) {
	err := New(InvalidInput, "bad")
	if !Is(err, InvalidInput) {
		t.Error("Is(err, InvalidInput) = false, want true")
	}
	if Is(err, Unsupported) {
		t.Error("Is(err, Unsupported) = true, want false")
	}
}
