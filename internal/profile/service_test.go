package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	updateProfileFn  func(ctx context.Context, id, name, surname, email string) error
	updatePasswordFn func(ctx context.Context, id, passwordHash string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name, surname, email string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, name, surname, email)
	}
	return nil
}
func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }
func (m *mockSessionRepo) TouchByToken(ctx context.Context, token string, now time.Time, ttl time.Duration) (*model.Session, bool, error) {
	return nil, false, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error { return nil }
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func wantAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}

func testHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(4)
}

func testUserWithPassword(t *testing.T, password string) *model.User {
	t.Helper()
	digest, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &model.User{ID: "user-1", Name: "Jo", Surname: "Do", Email: "jo@x.com", PasswordHash: digest}
}

// --- UpdateProfile ---

func TestUpdateProfile_Success(t *testing.T) {
	user := &model.User{ID: "user-1", Name: "Jo", Surname: "Do", Email: "jo@x.com"}
	updatedArgs := map[string]string{}
	users := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id, name, surname, email string) error {
			updatedArgs["id"] = id
			updatedArgs["email"] = email
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Jane", Surname: "Doe", Email: "jane@x.com"}, nil
		},
	}
	svc := NewService(users, &mockSessionRepo{}, testHasher())

	updated, err := svc.UpdateProfile(context.Background(), user, "Jane", "Doe", "jane@x.com")
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.Email != "jane@x.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "jane@x.com")
	}
	if updatedArgs["id"] != "user-1" {
		t.Errorf("updated id = %q, want %q", updatedArgs["id"], "user-1")
	}
}

func TestUpdateProfile_DuplicateEmail(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "jo@x.com"}
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-2", Email: email}, nil
		},
	}
	svc := NewService(users, &mockSessionRepo{}, testHasher())

	_, err := svc.UpdateProfile(context.Background(), user, "Jo", "Do", "taken@x.com")
	wantAPIErrorCode(t, err, model.ErrCodeDuplicateEmail)
}

// 自分のメールアドレスのままなら重複チェックを行わない
func TestUpdateProfile_KeepOwnEmail(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "jo@x.com"}
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			t.Fatal("FindByEmail should not be called for an unchanged email")
			return nil, nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
	}
	svc := NewService(users, &mockSessionRepo{}, testHasher())

	if _, err := svc.UpdateProfile(context.Background(), user, "Jane", "Do", "jo@x.com"); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
}

func TestUpdateProfile_DuplicateEmail_RaceOnUpdate(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "jo@x.com"}
	users := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id, name, surname, email string) error {
			return repository.ErrDuplicateKey
		},
	}
	svc := NewService(users, &mockSessionRepo{}, testHasher())

	_, err := svc.UpdateProfile(context.Background(), user, "Jo", "Do", "new@x.com")
	wantAPIErrorCode(t, err, model.ErrCodeDuplicateEmail)
}

// --- UpdatePassword ---

func TestUpdatePassword_Success(t *testing.T) {
	user := testUserWithPassword(t, "oldpassword1")
	var storedDigest string
	users := &mockUserRepo{
		updatePasswordFn: func(ctx context.Context, id, passwordHash string) error {
			storedDigest = passwordHash
			return nil
		},
	}
	revokedUserID := ""
	sessions := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			revokedUserID = userID
			return nil
		},
	}
	svc := NewService(users, sessions, testHasher())

	err := svc.UpdatePassword(context.Background(), user, "oldpassword1", "newpassword1", "newpassword1")
	if err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}
	if storedDigest == "" || storedDigest == user.PasswordHash {
		t.Error("expected a new digest to be stored")
	}
	if !testHasher().Verify("newpassword1", storedDigest) {
		t.Error("stored digest should verify against the new password")
	}
	// パスワード変更後は全セッションが無効化される
	if revokedUserID != "user-1" {
		t.Errorf("revoked user = %q, want %q", revokedUserID, "user-1")
	}
}

func TestUpdatePassword_Failures(t *testing.T) {
	tests := []struct {
		name     string
		old      string
		new      string
		confirm  string
		wantCode string
	}{
		{name: "確認不一致", old: "oldpassword1", new: "newpassword1", confirm: "different123", wantCode: model.ErrCodePasswordMismatch},
		{name: "現パスワード不一致", old: "wrongold1234", new: "newpassword1", confirm: "newpassword1", wantCode: model.ErrCodeWrongPassword},
		{name: "同一パスワードへの変更", old: "oldpassword1", new: "oldpassword1", confirm: "oldpassword1", wantCode: model.ErrCodePasswordReused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUserWithPassword(t, "oldpassword1")
			svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, testHasher())

			err := svc.UpdatePassword(context.Background(), user, tt.old, tt.new, tt.confirm)
			wantAPIErrorCode(t, err, tt.wantCode)
		})
	}
}
