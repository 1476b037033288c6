package auth

import "testing"

func TestHashPasswordIsStableMD5Hex(t *testing.T) {
	got := HashPassword("sprinkler123")
	want := "122420e25ac6fefb650129e9a83b7f59"
	if got != want {
		t.Fatalf("HashPassword(%q) = %q, want %q", "sprinkler123", got, want)
	}
	if HashPassword("sprinkler123") != got {
		t.Fatalf("expected HashPassword to be deterministic")
	}
}

func TestCheckAcceptsHashOrPlaintext(t *testing.T) {
	hash := HashPassword("letmein")

	if !Check(hash, hash) {
		t.Fatalf("expected Check to accept the already-hashed form")
	}
	if !Check(hash, "letmein") {
		t.Fatalf("expected Check to accept the plaintext form")
	}
	if Check(hash, "wrong") {
		t.Fatalf("expected Check to reject an unrelated value")
	}
}

func TestCheckEmptyConfiguredHashAlwaysPasses(t *testing.T) {
	if !Check("", "anything") {
		t.Fatalf("expected an empty configured hash to accept any supplied value")
	}
	if !Check("", "") {
		t.Fatalf("expected an empty configured hash to accept an empty supplied value")
	}
}
