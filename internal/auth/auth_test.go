package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/internal/testutil"
	"github.com/garnizeh/innohub/pkg/models"
)

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := testutil.NewRepo(t).Users()

	hash, err := auth.HashPassword("student123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	active := &models.User{Username: "aziz", PasswordHash: hash, Role: models.RoleStudent, IsActive: true}
	inactive := &models.User{Username: "blocked", PasswordHash: hash, Role: models.RoleStudent, IsActive: false}
	for _, u := range []*models.User{active, inactive} {
		if err := users.Save(ctx, u); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}

	svc := auth.NewService(users, nil)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "aziz", "student123", false},
		{"wrong password", "aziz", "nope", true},
		{"unknown user", "ghost", "student123", true},
		{"inactive user", "blocked", "student123", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tc.username, tc.password)
			if tc.wantErr {
				if !errors.Is(err, auth.ErrInvalidCredentials) {
					t.Fatalf("expected ErrInvalidCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if u.ID != active.ID {
				t.Fatalf("expected user %d, got %d", active.ID, u.ID)
			}
		})
	}
}
