package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/accvault/internal/models"
	"github.com/atinyakov/accvault/internal/password"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockAccountRepo struct {
	CreateFunc         func(ctx context.Context, acc models.Account) error
	FindByUsernameFunc func(ctx context.Context, username string) (*models.Account, error)
	UpdatePasswordFunc func(ctx context.Context, email, passwordHash string) error
	UpdateFullNameFunc func(ctx context.Context, email, fullName string) error
	DeleteFunc         func(ctx context.Context, username string) error
}

func (m *mockAccountRepo) Create(ctx context.Context, acc models.Account) error {
	return m.CreateFunc(ctx, acc)
}
func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return m.FindByUsernameFunc(ctx, username)
}
func (m *mockAccountRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return m.UpdatePasswordFunc(ctx, email, passwordHash)
}
func (m *mockAccountRepo) UpdateFullName(ctx context.Context, email, fullName string) error {
	return m.UpdateFullNameFunc(ctx, email, fullName)
}
func (m *mockAccountRepo) Delete(ctx context.Context, username string) error {
	return m.DeleteFunc(ctx, username)
}

type mockUserFiles struct {
	DeleteAllForUserFunc func(ctx context.Context, username string) (models.CleanupReport, error)
	CopyDefaultsFunc     func(ctx context.Context, username string) (int, error)
}

func (m *mockUserFiles) DeleteAllForUser(ctx context.Context, username string) (models.CleanupReport, error) {
	return m.DeleteAllForUserFunc(ctx, username)
}
func (m *mockUserFiles) CopyDefaults(ctx context.Context, username string) (int, error) {
	return m.CopyDefaultsFunc(ctx, username)
}

// memoryAccounts is a tiny in-memory AccountRepository keyed by username.
type memoryAccounts struct {
	rows map[string]models.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{rows: map[string]models.Account{}}
}

func (m *memoryAccounts) Exists(_ context.Context, username string) (bool, error) {
	_, ok := m.rows[username]
	return ok, nil
}
func (m *memoryAccounts) Create(_ context.Context, acc models.Account) error {
	if _, ok := m.rows[acc.Username]; ok {
		return models.ErrDuplicateUsername
	}
	m.rows[acc.Username] = acc
	return nil
}
func (m *memoryAccounts) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	acc, ok := m.rows[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &acc, nil
}
func (m *memoryAccounts) UpdatePassword(_ context.Context, email, passwordHash string) error {
	return m.update(email, func(a *models.Account) { a.PasswordHash = passwordHash })
}
func (m *memoryAccounts) UpdateFullName(_ context.Context, email, fullName string) error {
	return m.update(email, func(a *models.Account) { a.FullName = fullName })
}
func (m *memoryAccounts) Delete(_ context.Context, username string) error {
	delete(m.rows, username)
	return nil
}
func (m *memoryAccounts) update(email string, fn func(a *models.Account)) error {
	n := 0
	for k, a := range m.rows {
		if a.Email == email {
			fn(&a)
			m.rows[k] = a
			n++
		}
	}
	if n == 0 {
		return models.ErrEmailNotFound
	}
	return nil
}

func noFiles() *mockUserFiles {
	return &mockUserFiles{
		DeleteAllForUserFunc: func(ctx context.Context, username string) (models.CleanupReport, error) {
			return models.CleanupReport{}, nil
		},
		CopyDefaultsFunc: func(ctx context.Context, username string) (int, error) { return 0, nil },
	}
}

func TestRegister_Success(t *testing.T) {
	var created models.Account
	copiedFor := ""
	repo := &mockAccountRepo{
		CreateFunc: func(ctx context.Context, acc models.Account) error {
			created = acc
			return nil
		},
	}
	files := &mockUserFiles{
		CopyDefaultsFunc: func(ctx context.Context, username string) (int, error) {
			copiedFor = username
			return 2, nil
		},
	}
	svc := NewAccountService(repo, files, zap.NewNop())

	in := models.Registration{Username: "alice", Password: "s3cret", FullName: "Alice A", Email: "a@x.io"}
	if err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created.Username != "alice" || created.FullName != "Alice A" || created.Email != "a@x.io" {
		t.Errorf("created = %+v", created)
	}
	if created.PasswordHash == in.Password || !password.Verify(created.PasswordHash, in.Password) {
		t.Errorf("stored hash %q does not verify the password", created.PasswordHash)
	}
	if copiedFor != "alice" {
		t.Errorf("CopyDefaults called for %q; want alice", copiedFor)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAccountService(&mockAccountRepo{}, noFiles(), zap.NewNop())
	for _, in := range []models.Registration{
		{Username: "", Password: "x"},
		{Username: "bob", Password: ""},
		{Username: "../bob", Password: "x"},
	} {
		if err := svc.Register(context.Background(), in); !errors.Is(err, models.ErrValidation) {
			t.Errorf("Register(%+v) error = %v; want ErrValidation", in, err)
		}
	}
}

func TestRegister_ForbiddenUsername(t *testing.T) {
	svc := NewAccountService(&mockAccountRepo{}, noFiles(), zap.NewNop())
	for _, username := range []string{"a/b", ".x", `a\b`} {
		err := svc.Register(context.Background(), models.Registration{Username: username, Password: "x"})
		if !errors.Is(err, models.ErrInvalidUsername) {
			t.Errorf("Register(%q) error = %v; want ErrInvalidUsername", username, err)
		}
	}

	err := svc.Register(context.Background(), models.Registration{Username: "", Password: "x"})
	if errors.Is(err, models.ErrInvalidUsername) {
		t.Errorf("missing username must not be reported as forbidden characters: %v", err)
	}
}

func TestRegister_DuplicateKeepsFirstAccount(t *testing.T) {
	repo := newMemoryAccounts()
	svc := NewAccountService(repo, noFiles(), zap.NewNop())
	ctx := context.Background()

	if err := svc.Register(ctx, models.Registration{Username: "alice", Password: "first", FullName: "First", Email: "1@x.io"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := svc.Register(ctx, models.Registration{Username: "alice", Password: "second", FullName: "Second", Email: "2@x.io"})
	if !errors.Is(err, models.ErrDuplicateUsername) {
		t.Fatalf("second Register error = %v; want ErrDuplicateUsername", err)
	}

	acc := repo.rows["alice"]
	if acc.FullName != "First" || acc.Email != "1@x.io" || !password.Verify(acc.PasswordHash, "first") {
		t.Errorf("first account changed: %+v", acc)
	}
}

func TestRegister_CopyDefaultsError(t *testing.T) {
	repo := &mockAccountRepo{CreateFunc: func(ctx context.Context, acc models.Account) error { return nil }}
	files := &mockUserFiles{
		CopyDefaultsFunc: func(ctx context.Context, username string) (int, error) {
			return 0, errors.New("disk full")
		},
	}
	svc := NewAccountService(repo, files, zap.NewNop())

	err := svc.Register(context.Background(), models.Registration{Username: "alice", Password: "x"})
	if err == nil || errors.Is(err, models.ErrValidation) {
		t.Fatalf("Register error = %v; want a store error", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryAccounts()
	svc := NewAccountService(repo, noFiles(), zap.NewNop())
	ctx := context.Background()
	if err := svc.Register(ctx, models.Registration{Username: "alice", Password: "right", FullName: "Alice", Email: "a@x.io"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	acc, err := svc.Authenticate(ctx, "alice", "right")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if acc.PasswordHash != "" {
		t.Errorf("password hash must be stripped, got %q", acc.PasswordHash)
	}
	if acc.FullName != "Alice" || acc.Email != "a@x.io" {
		t.Errorf("account = %+v", acc)
	}

	_, wrongPass := svc.Authenticate(ctx, "alice", "wrong")
	_, noUser := svc.Authenticate(ctx, "nobody", "right")
	if !errors.Is(wrongPass, models.ErrInvalidCredentials) || !errors.Is(noUser, models.ErrInvalidCredentials) {
		t.Fatalf("errors = %v, %v; want ErrInvalidCredentials for both", wrongPass, noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Errorf("wrong password and unknown user must be indistinguishable: %q vs %q", wrongPass, noUser)
	}
}

func TestAuthenticate_UnknownUserStillHashes(t *testing.T) {
	var verified []string
	orig := verifyPassword
	verifyPassword = func(stored, candidate string) bool {
		verified = append(verified, stored)
		return orig(stored, candidate)
	}
	t.Cleanup(func() { verifyPassword = orig })

	svc := NewAccountService(newMemoryAccounts(), noFiles(), zap.NewNop())
	_, err := svc.Authenticate(context.Background(), "nobody", "guess")
	if !errors.Is(err, models.ErrInvalidCredentials) {
		t.Fatalf("Authenticate error = %v; want ErrInvalidCredentials", err)
	}
	if len(verified) != 1 || verified[0] != dummyHash {
		t.Fatalf("verify calls = %v; want one call against the dummy hash", verified)
	}
	if orig(dummyHash, "guess") || orig(dummyHash, "") {
		t.Error("dummy hash must not verify any password")
	}
}

func TestAuthenticate_StoreError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockAccountRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.Account, error) {
			return nil, wantErr
		},
	}
	svc := NewAccountService(repo, noFiles(), zap.NewNop())

	if _, err := svc.Authenticate(context.Background(), "alice", "x"); !errors.Is(err, wantErr) {
		t.Fatalf("Authenticate error = %v; want %v", err, wantErr)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo := newMemoryAccounts()
	svc := NewAccountService(repo, noFiles(), zap.NewNop())
	ctx := context.Background()
	if err := svc.Register(ctx, models.Registration{Username: "alice", Password: "old", Email: "a@x.io"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.UpdatePassword(ctx, "a@x.io", "new"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "new"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "old"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("old password still accepted")
	}

	before := repo.rows["alice"]
	if err := svc.UpdatePassword(ctx, "none@x.io", "other"); !errors.Is(err, models.ErrEmailNotFound) {
		t.Errorf("UpdatePassword unknown email error = %v; want ErrEmailNotFound", err)
	}
	if repo.rows["alice"] != before {
		t.Errorf("rows altered by a failed update")
	}

	if err := svc.UpdatePassword(ctx, "", "x"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing email error = %v; want ErrValidation", err)
	}
	if err := svc.UpdatePassword(ctx, "a@x.io", ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing password error = %v; want ErrValidation", err)
	}
}

func TestUpdateFullName(t *testing.T) {
	var gotEmail, gotName string
	repo := &mockAccountRepo{
		UpdateFullNameFunc: func(ctx context.Context, email, fullName string) error {
			gotEmail, gotName = email, fullName
			return nil
		},
	}
	svc := NewAccountService(repo, noFiles(), zap.NewNop())

	if err := svc.UpdateFullName(context.Background(), "a@x.io", "Alice B"); err != nil {
		t.Fatalf("UpdateFullName: %v", err)
	}
	if gotEmail != "a@x.io" || gotName != "Alice B" {
		t.Errorf("repo received (%q, %q)", gotEmail, gotName)
	}
	if err := svc.UpdateFullName(context.Background(), "a@x.io", ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing name error = %v; want ErrValidation", err)
	}
}

func TestDelete_RowThenFiles(t *testing.T) {
	var order []string
	repo := &mockAccountRepo{
		DeleteFunc: func(ctx context.Context, username string) error {
			order = append(order, "row")
			return nil
		},
	}
	files := &mockUserFiles{
		DeleteAllForUserFunc: func(ctx context.Context, username string) (models.CleanupReport, error) {
			order = append(order, "files")
			return models.CleanupReport{
				Removed: []string{"alice_a.txt"},
				Failed:  []models.FileFailure{{Filename: "alice_b.txt", Error: "permission denied"}},
			}, nil
		},
	}
	core, logs := observer.New(zap.WarnLevel)
	svc := NewAccountService(repo, files, zap.New(core))

	report, err := svc.Delete(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "row" || order[1] != "files" {
		t.Errorf("call order = %v; want [row files]", order)
	}
	if report.Complete() || report.Failed[0].Filename != "alice_b.txt" {
		t.Errorf("report = %+v", report)
	}
	if logs.FilterMessage("failed to delete file").Len() != 1 {
		t.Errorf("expected one warning per failed file, got %d", logs.Len())
	}
}

func TestDelete_RowError(t *testing.T) {
	filesCalled := false
	repo := &mockAccountRepo{
		DeleteFunc: func(ctx context.Context, username string) error { return errors.New("db down") },
	}
	files := &mockUserFiles{
		DeleteAllForUserFunc: func(ctx context.Context, username string) (models.CleanupReport, error) {
			filesCalled = true
			return models.CleanupReport{}, nil
		},
	}
	svc := NewAccountService(repo, files, zap.NewNop())

	if _, err := svc.Delete(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
	if filesCalled {
		t.Error("files must not be touched when the row deletion fails")
	}
	if _, err := svc.Delete(context.Background(), ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing username error = %v; want ErrValidation", err)
	}
}
