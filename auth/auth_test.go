package auth

import (
	"chat-relay/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsStr0ng!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	for _, encoded := range []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		_, err := ComparePassword("anything", encoded)
		req.Error(err, encoded)
	}
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{"Valid request", RegisterRequest{"alice", "ComplexPass123!"}, nil},
		{"Missing username", RegisterRequest{"", "ComplexPass123!"}, errors.ErrValidation},
		{"Username too short", RegisterRequest{"al", "ComplexPass123!"}, errors.ErrValidation},
		{"Username with spaces", RegisterRequest{"alice smith", "ComplexPass123!"}, errors.ErrValidation},
		{"Password too short", RegisterRequest{"alice", "Short1!"}, errors.ErrValidation},
		{"Missing digit", RegisterRequest{"alice", "NoDigitPassword!"}, errors.ErrInvalidPassword},
		{"Missing special char", RegisterRequest{"alice", "NoSpecialChar123"}, errors.ErrInvalidPassword},
		{"Missing uppercase", RegisterRequest{"alice", "nouppercase123!"}, errors.ErrInvalidPassword},
		{"Password too long", RegisterRequest{"alice", strings.Repeat("a", 73)}, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.req)
			if tt.wantErr == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tt.wantErr)
		})
	}
}

func TestPostMessageValidation(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidatePostMessage(PostMessageRequest{ReceiverID: "bob", Content: "hi"}))
	req.ErrorIs(ValidatePostMessage(PostMessageRequest{Content: "hi"}), errors.ErrValidation)
	req.ErrorIs(ValidatePostMessage(PostMessageRequest{ReceiverID: "bob"}), errors.ErrValidation)
	req.ErrorIs(ValidatePostMessage(PostMessageRequest{ReceiverID: "bob", Content: strings.Repeat("x", 4097)}), errors.ErrValidation)

	req.ErrorIs(ValidateLogin(LoginRequest{Username: "alice"}), errors.ErrValidation)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
