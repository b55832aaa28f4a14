package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[string]*model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uuid.UUID]*model.User),
		tokens: make(map[string]*model.RefreshToken),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			all = append(all, *u)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	cp := *token
	if u, ok := f.users[token.UserID]; ok {
		cp.User = *u
	}
	f.tokens[token.Token] = &cp
	return nil
}

func (f *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if rt, ok := f.tokens[token]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func TestCreateUserAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	tenantID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, tenantID, CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
		Role:     "manager",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Role != "manager" || created.TenantID != tenantID {
		t.Errorf("created = %+v, want manager in tenant %s", created, tenantID)
	}

	// Duplicate email within the tenant is rejected.
	_, err = svc.CreateUser(ctx, tenantID, CreateUserRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "secret123",
		Role:     "staff",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate email: err = %v, want ErrValidation", err)
	}

	// The same email under another tenant is a different user.
	otherTenant := uuid.New()
	if _, err := svc.CreateUser(ctx, otherTenant, CreateUserRequest{
		Username: "alice-b",
		Email:    "alice@example.com",
		Password: "secret123",
		Role:     "staff",
	}); err != nil {
		t.Fatalf("same email, other tenant: %v", err)
	}

	tokens, err := svc.Login(ctx, tenantID, LoginUserRequest{
		TenantID: tenantID.String(),
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Error("login returned empty token pair")
	}

	if _, err := svc.Login(ctx, tenantID, LoginUserRequest{
		TenantID: tenantID.String(),
		Email:    "alice@example.com",
		Password: "wrong",
	}); err == nil {
		t.Error("login with wrong password succeeded")
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	tenantID := uuid.New()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, tenantID, CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret123",
		Role:     "staff",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	tokens, err := svc.Login(ctx, tenantID, LoginUserRequest{
		TenantID: tenantID.String(),
		Email:    "bob@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The consumed token is gone.
	if _, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken}); err == nil {
		t.Error("reused refresh token succeeded")
	}
}

func TestRefreshTokenExpiry(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	userID := uuid.New()
	repo.users[userID] = &model.User{ID: userID, TenantID: uuid.New(), Role: "staff"}
	repo.tokens["stale"] = &model.RefreshToken{
		UserID:    userID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
		User:      *repo.users[userID],
	}

	if _, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "stale"}); err == nil {
		t.Fatal("expired refresh token succeeded")
	}
	if _, ok := repo.tokens["stale"]; ok {
		t.Error("expired token not purged")
	}
}

func TestUsersAreTenantScoped(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	tenantA := uuid.New()
	tenantB := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, tenantA, CreateUserRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "secret123",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Another tenant cannot see or delete the user.
	if _, err := svc.GetUserByID(ctx, tenantB, created.ID.String()); !errors.Is(err, ErrValidation) {
		t.Errorf("cross-tenant get: err = %v, want ErrValidation", err)
	}
	if err := svc.DeleteUser(ctx, tenantB, created.ID.String()); !errors.Is(err, ErrValidation) {
		t.Errorf("cross-tenant delete: err = %v, want ErrValidation", err)
	}
	if _, err := svc.GetUserByID(ctx, tenantA, created.ID.String()); err != nil {
		t.Errorf("owner get: %v", err)
	}
}
