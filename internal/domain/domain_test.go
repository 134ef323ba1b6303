package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		password  string
		wantError bool
	}{
		{name: "valid", password: "pw", wantError: false},
		{name: "empty", password: "", wantError: true},
		{name: "whitespace", password: "   ", wantError: true},
		{name: "at limit", password: strings.Repeat("é", maxPasswordLength), wantError: false},
		{name: "over limit", password: strings.Repeat("a", maxPasswordLength+1), wantError: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
			if tc.wantError && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !tc.wantError && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		txn       Transaction
		wantError bool
	}{
		{name: "minimal", txn: Transaction{TransactionID: "tx-1"}},
		{name: "zero amount", txn: Transaction{TransactionID: "tx-1", Amount: 0}},
		{name: "blank id", txn: Transaction{TransactionID: "  ", Amount: 5}, wantError: true},
		{name: "negative", txn: Transaction{TransactionID: "tx-1", Amount: -5}, wantError: true},
		{name: "nan", txn: Transaction{TransactionID: "tx-1", Amount: math.NaN()}, wantError: true},
		{name: "inf", txn: Transaction{TransactionID: "tx-1", Amount: math.Inf(1)}, wantError: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.txn.Validate()
			if tc.wantError != (err != nil) {
				t.Fatalf("wantError=%v, got %v", tc.wantError, err)
			}
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	t.Parallel()

	if got := MaskCardNumber("4111111111111111"); got != "****1111" {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := MaskCardNumber("123"); got != "***" {
		t.Fatalf("short numbers must be fully masked, got %q", got)
	}
}

func TestVerdictStatuses(t *testing.T) {
	t.Parallel()

	if StatusFor(true) != StatusFlagged || StatusFor(false) != StatusApproved {
		t.Fatalf("unexpected status mapping")
	}
	if StoredStatusFor(true) != StatusFlagged || StoredStatusFor(false) != StatusPending {
		t.Fatalf("unexpected stored status defaults")
	}
	pending := PendingVerdict("tx-7")
	if pending.Status != StatusPending || pending.Fraudulent || pending.ConfidenceScore != 0 || pending.TransactionID != "tx-7" {
		t.Fatalf("unexpected pending verdict: %+v", pending)
	}
	if s, err := ParseVerdictStatus(" flagged "); err != nil || s != StatusFlagged {
		t.Fatalf("expected FLAGGED, got %q %v", s, err)
	}
	if _, err := ParseVerdictStatus("DECLINED"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
