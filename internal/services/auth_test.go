package services

import (
	"context"
	"testing"

	"studypath-backend/internal/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"valid", "StrongPass1", false},
		{"too short", "Abc1", true},
		{"no number", "StrongPassword", true},
		{"exactly eight with number", "abcdefg1", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pw)
			if tc.wantErr && err == nil {
				t.Error("Expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestEmailRegex(t *testing.T) {
	valid := []string{"user@example.com", "first.last+tag@sub.example.co"}
	invalid := []string{"", "not-an-email", "user@", "@example.com", "user@example"}

	for _, email := range valid {
		if !emailRegex.MatchString(email) {
			t.Errorf("Expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if emailRegex.MatchString(email) {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := generateToken(64)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(token))
	}

	other, _ := generateToken(64)
	if token == other {
		t.Error("Expected two generated tokens to differ")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := NewAuthService(nil, nil, nil)

	tests := []struct {
		name  string
		req   models.RegisterRequest
		field string
	}{
		{"missing name", models.RegisterRequest{Email: "t@t.com", Password: "Pass1234"}, "full_name"},
		{"bad email", models.RegisterRequest{FullName: "Test", Email: "nope", Password: "Pass1234"}, "email"},
		{"weak password", models.RegisterRequest{FullName: "Test", Email: "t@t.com", Password: "short"}, "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Register(context.Background(), tc.req)

			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if _, found := verr.Fields[tc.field]; !found {
				t.Errorf("Expected a field error for %q, got %v", tc.field, verr.Fields)
			}
		})
	}
}
