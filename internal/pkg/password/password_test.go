package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Sm0ke!23", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Sm0ke!23" {
		t.Fatal("hash stored the plaintext")
	}
	if !Verify("Sm0ke!23", hash) {
		t.Error("correct password rejected")
	}
	if Verify("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashCostFallback(t *testing.T) {
	// Out-of-range costs fall back to the bcrypt default rather than error.
	for _, cost := range []int{-1, 0, 99} {
		hash, err := Hash("secret-pw", cost)
		if err != nil {
			t.Fatalf("Hash(cost=%d): %v", cost, err)
		}
		if !Verify("secret-pw", hash) {
			t.Errorf("Hash(cost=%d) produced unverifiable hash", cost)
		}
	}
}
