package forms

import (
	"context"
	"fmt"

	"github.com/garnizeh/innohub/internal/auth"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150"`
	Password string `form:"password" json:"-" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// UserForm is the admin form for any account. The password is required when
// creating and left unchanged on edit when blank.
type UserForm struct {
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Password  string `form:"password" json:"-"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Phone     string `form:"phone" json:"phone" validate:"max=20"`
	Role      string `form:"role" json:"role" validate:"required,oneof=admin student"`
	Avatar    string `form:"-" json:"avatar" upload:"avatar,avatars"`
	Bio       string `form:"bio" json:"bio"`
	IsActive  bool   `form:"is_active" json:"is_active"`

	users repository.UserRepo
}

func NewUserForm(users repository.UserRepo) *UserForm {
	return &UserForm{users: users}
}

func (f *UserForm) Fill(u *models.User) {
	f.Username, f.Password, f.FirstName, f.LastName = u.Username, "", u.FirstName, u.LastName
	f.Email, f.Phone, f.Role, f.Avatar, f.Bio, f.IsActive = u.Email, u.Phone, string(u.Role), u.Avatar, u.Bio, u.IsActive
}

func (f *UserForm) Clean(ctx context.Context, u *models.User) error {
	ve := apperr.NewValidationError()
	if u.ID == 0 && f.Password == "" {
		ve.Add("password", "password is a required field")
	}
	if err := checkUsername(ctx, f.users, f.Username, u.ID, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	if f.Password != "" {
		hash, err := auth.HashPassword(f.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	u.Username, u.FirstName, u.LastName = f.Username, f.FirstName, f.LastName
	u.Email, u.Phone, u.Role, u.Bio, u.IsActive = f.Email, f.Phone, models.Role(f.Role), f.Bio, f.IsActive
	keepUpload(&u.Avatar, f.Avatar)
	return nil
}

// RegisterForm creates student accounts. The role cannot be chosen.
type RegisterForm struct {
	Username        string `form:"username" json:"username" validate:"required,max=150,username"`
	FirstName       string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName        string `form:"last_name" json:"last_name" validate:"max=150"`
	Email           string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Phone           string `form:"phone" json:"phone" validate:"max=20"`
	Password        string `form:"password" json:"-" validate:"required"`
	PasswordConfirm string `form:"password_confirm" json:"-" validate:"required"`

	users repository.UserRepo
}

func NewRegisterForm(users repository.UserRepo) *RegisterForm {
	return &RegisterForm{users: users}
}

func (f *RegisterForm) Clean(ctx context.Context, u *models.User) error {
	ve := apperr.NewValidationError()
	if f.Password != f.PasswordConfirm {
		ve.Add("password_confirm", "Parollar mos kelmadi!")
	}
	if err := checkUsername(ctx, f.users, f.Username, 0, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	hash, err := auth.HashPassword(f.Password)
	if err != nil {
		return err
	}
	*u = models.User{
		Username:     f.Username,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Email:        f.Email,
		Phone:        f.Phone,
		IsActive:     true,
	}
	return nil
}

// ProfileForm lets a user edit their own profile fields. Username, role and
// password are not reachable from it.
type ProfileForm struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Phone     string `form:"phone" json:"phone" validate:"max=20"`
	Avatar    string `form:"-" json:"avatar" upload:"avatar,avatars"`
	Bio       string `form:"bio" json:"bio"`
	BirthDate string `form:"birth_date" json:"birth_date" validate:"date"`
}

func (f *ProfileForm) Fill(u *models.User) {
	*f = ProfileForm{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone, Avatar: u.Avatar, Bio: u.Bio, BirthDate: u.BirthDate}
}

func (f *ProfileForm) Clean(_ context.Context, u *models.User) error {
	u.FirstName, u.LastName, u.Email, u.Phone, u.Bio, u.BirthDate = f.FirstName, f.LastName, f.Email, f.Phone, f.Bio, f.BirthDate
	keepUpload(&u.Avatar, f.Avatar)
	return nil
}

func checkUsername(ctx context.Context, users repository.UserRepo, username string, selfID int64, ve *apperr.ValidationError) error {
	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		ve.Add("username", "A user with that username already exists.")
	}
	return nil
}
