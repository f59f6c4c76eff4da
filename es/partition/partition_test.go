package partition

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestResolve_PinnedExample(t *testing.T) {
	s := NewTablePerAggregateIDGroup()

	// [0x00, 0x01] -> "AAE" (unpadded) -> chunk "AE"
	name, err := s.Resolve("Collaboration", []byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if name != "Collaboration_es_AE" {
		t.Errorf("expected Collaboration_es_AE, got %s", name)
	}
}

func TestResolve_KnownIdentities(t *testing.T) {
	s := NewTablePerAggregateIDGroup()

	tests := []struct {
		raw  []byte
		want string
	}{
		{[]byte{0x00, 0x00, 0x00}, "Users_es_AA"},       // "AAAA"
		{[]byte{0xFF, 0xFF, 0xFF}, "Users_es_//"},       // "////"
		{[]byte{0xFB, 0xEF, 0xBE}, "Users_es_++"},       // "++++"
		{[]byte("hello"), "Users_es_G8"},                // "aGVsbG8"
		{[]byte{0x00}, "Users_es_AA"},                   // "AA"
		{[]byte{0x01, 0x02, 0x03, 0x04}, "Users_es_BA"}, // "AQIDBA"
	}

	for _, tt := range tests {
		got, err := s.Resolve("Users", tt.raw)
		if err != nil {
			t.Fatalf("Resolve(%v) failed: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%v) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestResolve_IdentityTooShort(t *testing.T) {
	s := NewTablePerAggregateIDGroup()

	_, err := s.Resolve("Users", nil)
	if !errors.Is(err, ErrIdentityTooShort) {
		t.Errorf("expected ErrIdentityTooShort, got %v", err)
	}

	s3 := TablePerAggregateIDGroup{ChunkLength: 3}
	_, err = s3.Resolve("Users", []byte{0x01})
	if !errors.Is(err, ErrIdentityTooShort) {
		t.Errorf("expected ErrIdentityTooShort for chunk 3, got %v", err)
	}
}

func TestAll_DefaultEnumeratesFullSet(t *testing.T) {
	names := NewTablePerAggregateIDGroup().All("Collaboration")

	if len(names) != 4096 {
		t.Fatalf("expected 4096 partitions, got %d", len(names))
	}

	pattern := regexp.MustCompile(`^Collaboration_es_[A-Za-z0-9+/]{2}$`)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !pattern.MatchString(n) {
			t.Errorf("partition %q does not match expected pattern", n)
		}
		if seen[n] {
			t.Errorf("duplicate partition %q", n)
		}
		seen[n] = true
	}

	if names[0] != "Collaboration_es_AA" || names[len(names)-1] != "Collaboration_es_//" {
		t.Errorf("unexpected ordering: first=%s last=%s", names[0], names[len(names)-1])
	}
}

func TestAll_ChunkLengthOne(t *testing.T) {
	names := TablePerAggregateIDGroup{ChunkLength: 1}.All("Billing")
	if len(names) != 64 {
		t.Fatalf("expected 64 partitions, got %d", len(names))
	}
	for i, n := range names {
		if want := "Billing_es_" + string(Alphabet[i]); n != want {
			t.Errorf("names[%d] = %s, want %s", i, n, want)
		}
	}
}

func TestAll_ZeroValueUsesDefault(t *testing.T) {
	if got := len(TablePerAggregateIDGroup{}.All("X")); got != 4096 {
		t.Errorf("expected zero value to enumerate 4096 partitions, got %d", got)
	}
}

func TestAlphabet(t *testing.T) {
	if len(Alphabet) != 64 {
		t.Fatalf("alphabet must have 64 symbols, has %d", len(Alphabet))
	}
	seen := map[rune]bool{}
	for _, r := range Alphabet {
		if seen[r] {
			t.Errorf("duplicate alphabet symbol %q", r)
		}
		seen[r] = true
	}
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry("Collaboration", "Billing")
	r.Register("Audit", TablePerAggregateIDGroup{ChunkLength: 1})

	if got := r.BoundedContexts(); len(got) != 3 || got[0] != "Audit" || got[1] != "Billing" || got[2] != "Collaboration" {
		t.Errorf("unexpected bounded contexts %v", got)
	}

	name, err := r.Resolve("Collaboration", []byte{0x00, 0x01})
	if err != nil || name != "Collaboration_es_AE" {
		t.Errorf("Resolve = %q, %v", name, err)
	}

	name, err = r.Resolve("Audit", []byte{0x00, 0x01})
	if err != nil || name != "Audit_es_E" {
		t.Errorf("Resolve = %q, %v", name, err)
	}

	if _, err := r.Resolve("Unknown", []byte{0x00, 0x01}); !errors.Is(err, ErrUnknownBoundedContext) {
		t.Errorf("expected ErrUnknownBoundedContext, got %v", err)
	}

	if got := len(r.Partitions()); got != 64+4096+4096 {
		t.Errorf("expected %d partitions, got %d", 64+4096+4096, got)
	}
}

func TestRegistryCheckNameLength(t *testing.T) {
	// "Collaboration_es_AE" is 19 bytes
	r := NewDefaultRegistry("Collaboration")

	if err := r.CheckNameLength(19); err != nil {
		t.Errorf("expected names of 19 bytes to fit, got %v", err)
	}
	if err := r.CheckNameLength(0); err != nil {
		t.Errorf("expected a zero limit to disable the check, got %v", err)
	}
	if err := r.CheckNameLength(18); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}

	// 58 symbols + "_es_" + 2 symbols = 64 bytes, one past the postgres limit
	long := NewDefaultRegistry(strings.Repeat("C", 58))
	if err := long.CheckNameLength(63); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}

func TestResolve_UUIDReachesQuarterOfLastSymbol(t *testing.T) {
	s := NewTablePerAggregateIDGroup()
	seen := make(map[byte]bool)

	for i := 0; i < 256; i++ {
		raw := make([]byte, 16)
		raw[15] = byte(i)
		raw[14] = byte(i * 7)
		name, err := s.Resolve("Users", raw)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		seen[name[len(name)-1]] = true
	}

	for sym := range seen {
		if !strings.ContainsRune("AQgw", rune(sym)) {
			t.Errorf("unexpected last symbol %q for a 16-byte identity", sym)
		}
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct last symbols, got %d", len(seen))
	}
}
