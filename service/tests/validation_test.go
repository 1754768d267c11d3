package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/noteverse/service"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng#Pass", false},
		{"valid with underscore", "Passw0rd_x", false},
		{"too short", "S0#aBcd", true},
		{"no uppercase", "str0ng#pass", true},
		{"no lowercase", "STR0NG#PASS", true},
		{"no digit", "Strong#Pass", true},
		{"no symbol", "Str0ngPass1", true},
		{"symbol outside allowed set", "Str0ngPass(", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"valid subdomain", "a.b@mail.example.co", false},
		{"no at", "aliceexample.com", true},
		{"no domain dot", "alice@example", true},
		{"whitespace", "alice @example.com", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, service.ValidateName("Alice"))
	assert.Error(t, service.ValidateName("Al"))
	assert.Error(t, service.ValidateName("  a  "))
	assert.Error(t, service.ValidateName(""))
}

func TestValidateNoteTitle(t *testing.T) {
	assert.NoError(t, service.ValidateNoteTitle("Groceries"))
	assert.Error(t, service.ValidateNoteTitle("ab"))
	assert.Error(t, service.ValidateNoteTitle("   "))
	assert.Error(t, service.ValidateNoteTitle(strings.Repeat("x", 201)))
}

func TestValidateNoteContent(t *testing.T) {
	assert.NoError(t, service.ValidateNoteContent(""))
	assert.NoError(t, service.ValidateNoteContent("some text"))
	assert.Error(t, service.ValidateNoteContent(strings.Repeat("x", 100_001)))
}
