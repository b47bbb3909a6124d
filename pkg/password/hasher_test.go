package password

import "testing"

func TestHasher_HashAndCheck(t *testing.T) {
	h := NewHasher()

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !h.Check("s3cret", hash) {
		t.Fatal("expected matching password to verify")
	}
	if h.Check("wrong", hash) {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestHasher_HashesAreSalted(t *testing.T) {
	h := NewHasher()

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}
