package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/fraudshield/screening/internal/domain"
)

var fastArgon2 = Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

func TestArgon2HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(fastArgon2)
	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %s", hash)
	}
	if strings.Contains(hash, "pw1") {
		t.Fatalf("hash leaks plaintext")
	}
	if err := h.Compare(hash, "pw1"); err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if err := h.Compare(hash, "pw2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestArgon2HashIsSalted(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(fastArgon2)
	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}

func TestArgon2CompareRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(fastArgon2)
	for _, hash := range []string{"", "$argon2id$", "$argon2i$v=19$m=1,t=1,p=1$AAAA$AAAA", "$argon2id$v=19$m=x$AAAA$AAAA"} {
		if err := h.Compare(hash, "pw"); err == nil {
			t.Fatalf("expected error for %q", hash)
		}
	}
}

func TestArgon2CompareRejectsZeroCostParameters(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(fastArgon2)
	for _, hash := range []string{
		"$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5",
	} {
		if err := h.Compare(hash, "pw"); !errors.Is(err, errMalformedHash) {
			t.Fatalf("expected errMalformedHash for %q, got %v", hash, err)
		}
	}
}

func TestPasswordHasherVerifiesBothEncodings(t *testing.T) {
	t.Parallel()

	argonFirst, err := NewPasswordHasher(HasherArgon2id, fastArgon2, 4)
	if err != nil {
		t.Fatalf("new argon hasher: %v", err)
	}
	bcryptFirst, err := NewPasswordHasher(HasherBcrypt, fastArgon2, 4)
	if err != nil {
		t.Fatalf("new bcrypt hasher: %v", err)
	}

	argonHash, err := argonFirst.Hash("secret")
	if err != nil {
		t.Fatalf("argon hash: %v", err)
	}
	bcryptHash, err := bcryptFirst.Hash("secret")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	if !strings.HasPrefix(bcryptHash, "$2") {
		t.Fatalf("unexpected bcrypt encoding: %s", bcryptHash)
	}

	for _, h := range []*PasswordHasher{argonFirst, bcryptFirst} {
		if err := h.Compare(argonHash, "secret"); err != nil {
			t.Fatalf("argon compare: %v", err)
		}
		if err := h.Compare(bcryptHash, "secret"); err != nil {
			t.Fatalf("bcrypt compare: %v", err)
		}
		if err := h.Compare(bcryptHash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("expected mismatch, got %v", err)
		}
		if err := h.Compare("plaintext", "plaintext"); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("unknown encodings must never match")
		}
	}
}

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	if _, err := h.Hash(strings.Repeat("a", 73)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewPasswordHasherRejectsUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	if _, err := NewPasswordHasher("md5", fastArgon2, 4); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}
