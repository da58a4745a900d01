package models

import "testing"

func TestSetAndCheckPassword(t *testing.T) {
	user := &User{Username: "alice"}
	if err := user.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if user.PasswordHash == "" {
		t.Fatalf("expected password hash to be set")
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatalf("password stored in plaintext")
	}

	if !user.CheckPassword("correct horse battery") {
		t.Errorf("expected matching password to verify")
	}
	if user.CheckPassword("wrong password") {
		t.Errorf("expected non-matching password to fail")
	}
}
