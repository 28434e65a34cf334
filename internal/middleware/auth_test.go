package middleware

import (
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestUploadTokenRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	tokenString, err := IssueUploadToken("conn-123", "alice")
	if err != nil {
		t.Fatalf("IssueUploadToken: %v", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &UploadClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse: valid=%v err=%v", token != nil && token.Valid, err)
	}

	claims := token.Claims.(*UploadClaims)
	if claims.ConnID != "conn-123" || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Errorf("token missing expiry or issue time")
	}
}

func TestUploadTokenRejectsWrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "right-secret")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	tokenString, err := IssueUploadToken("conn-123", "alice")
	if err != nil {
		t.Fatalf("IssueUploadToken: %v", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &UploadClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	if err == nil && token.Valid {
		t.Fatalf("token accepted with wrong secret")
	}
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"https://a.example", 1},
		{"https://a.example, https://b.example", 2},
		{" , ,https://a.example,", 1},
	}
	for _, tt := range tests {
		if got := SplitCSV(tt.in); len(got) != tt.want {
			t.Errorf("SplitCSV(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
