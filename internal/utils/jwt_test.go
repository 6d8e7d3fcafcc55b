package utils

import (
	"testing"
	"time"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	raw, err := NewOperatorToken("s3cret", "42", "ADMIN", time.Minute)
	if err != nil {
		t.Fatalf("NewOperatorToken: %v", err)
	}
	claims, err := ParseOperatorToken("s3cret", raw)
	if err != nil {
		t.Fatalf("ParseOperatorToken: %v", err)
	}
	if claims.Subject != "42" || claims.Role != "ADMIN" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseOperatorTokenRejects(t *testing.T) {
	good, _ := NewOperatorToken("s3cret", "42", "ADMIN", time.Minute)
	expired, _ := NewOperatorToken("s3cret", "42", "ADMIN", -time.Minute)
	anonymous, _ := NewOperatorToken("s3cret", "", "ADMIN", time.Minute)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"no subject":   {"s3cret", anonymous},
		"garbage":      {"s3cret", "not.a.token"},
	}
	for name, tc := range cases {
		if _, err := ParseOperatorToken(tc.secret, tc.raw); err != ErrInvalidToken {
			t.Fatalf("%s: got %v, want ErrInvalidToken", name, err)
		}
	}
}
