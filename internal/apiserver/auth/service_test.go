package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"bloodbank-admin/internal/apiserver/response"
	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage"
	sqlitedriver "bloodbank-admin/internal/shared/storage/driver/sqlite"
	"bloodbank-admin/internal/shared/storage/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestStore SQLite 内存数据库
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(t *testing.T, store storage.UserStore) *Service {
	t.Helper()
	return NewService(store, NewBcryptHasher(bcrypt.MinCost), newTestIssuer(t), nil)
}

func registerOrg(t *testing.T, svc *Service, email string) {
	t.Helper()
	require.NoError(t, svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "pw-123",
		UserType: "Organization",
		Profile:  map[string]any{"organizationName": "Red Drop", "phone": "555-0100"},
	}))
}

func assertKind(t *testing.T, err error, kind response.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var e *response.Error
	require.True(t, errors.As(err, &e), "expected *response.Error, got %T", err)
	assert.Equal(t, kind, e.Kind)
	if msg != "" {
		assert.Equal(t, msg, e.Message)
	}
}

func TestRegister(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	registerOrg(t, svc, "org@example.com")

	u, err := store.GetUserByEmail(ctx, "org@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.UserTypeOrganization, u.UserType)
	assert.Equal(t, "Red Drop", u.Profile["organizationName"])
	assert.NotEqual(t, "pw-123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw-123")))
	assert.NotEmpty(t, u.ID)
}

func TestRegister_Duplicate(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	registerOrg(t, svc, "org@example.com")

	err := svc.Register(context.Background(), RegisterInput{
		Email: "org@example.com", Password: "other", UserType: "Donor",
	})
	assertKind(t, err, response.KindDuplicateUser, MsgUserExists)

	// 已注册邮箱优先于字段校验
	for _, in := range []RegisterInput{
		{Email: "org@example.com", Password: "x"},
		{Email: "org@example.com", UserType: "Donor"},
		{Email: "org@example.com", Password: "x", UserType: "Patient"},
		{Email: "org@example.com", Password: "x", UserType: "Donor", Profile: map[string]any{"$set": 1}},
	} {
		assertKind(t, svc.Register(context.Background(), in), response.KindDuplicateUser, MsgUserExists)
	}

	// 邮箱区分大小写
	assert.NoError(t, svc.Register(context.Background(), RegisterInput{
		Email: "ORG@example.com", Password: "other", UserType: "Donor",
	}))
}

func TestRegister_Concurrent(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Register(context.Background(), RegisterInput{
				Email: "race@example.com", Password: fmt.Sprintf("pw-%d", i), UserType: "Donor",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, response.KindDuplicateUser, response.KindOf(err))
	}
	assert.Equal(t, 1, ok)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: "p", UserType: "Donor"}},
		{"missing password", RegisterInput{Email: "a@b.c", UserType: "Donor"}},
		{"unknown userType", RegisterInput{Email: "a@b.c", Password: "p", UserType: "Patient"}},
		{"lowercase userType", RegisterInput{Email: "a@b.c", Password: "p", UserType: "donor"}},
		{"dollar field", RegisterInput{Email: "a@b.c", Password: "p", UserType: "Donor", Profile: map[string]any{"$where": "1"}}},
		{"dotted field", RegisterInput{Email: "a@b.c", Password: "p", UserType: "Donor", Profile: map[string]any{"address.city": "X"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, svc.Register(context.Background(), tt.in), response.KindValidation, "")
		})
	}
}

func TestLogin(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	registerOrg(t, svc, "org@example.com")

	res, err := svc.Login(context.Background(), LoginInput{
		Email: "org@example.com", Password: "pw-123", UserType: "Organization",
	})
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, "org@example.com", res.User.Email)

	claims, err := svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestLogin_Failures(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	registerOrg(t, svc, "org@example.com")

	tests := []struct {
		name string
		in   LoginInput
		kind response.Kind
		msg  string
	}{
		{
			name: "unknown email",
			in:   LoginInput{Email: "nobody@example.com", Password: "pw-123", UserType: "Organization"},
			kind: response.KindInvalidCredentials,
			msg:  MsgInvalidCredentials,
		},
		{
			name: "role mismatch checked before password",
			in:   LoginInput{Email: "org@example.com", Password: "wrong", UserType: "Donor"},
			kind: response.KindUserTypeMismatch,
			msg:  "User is not registered as Donor",
		},
		{
			name: "wrong password",
			in:   LoginInput{Email: "org@example.com", Password: "wrong", UserType: "Organization"},
			kind: response.KindWrongPassword,
			msg:  MsgWrongPassword,
		},
		{
			name: "email case differs",
			in:   LoginInput{Email: "Org@example.com", Password: "pw-123", UserType: "Organization"},
			kind: response.KindInvalidCredentials,
			msg:  MsgInvalidCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(context.Background(), tt.in)
			assert.Nil(t, res)
			assertKind(t, err, tt.kind, tt.msg)
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	registerOrg(t, svc, "org@example.com")

	u, err := store.GetUserByEmail(context.Background(), "org@example.com")
	require.NoError(t, err)

	got, err := svc.GetCurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.GetCurrentUser(context.Background(), "deleted-user")
	assertKind(t, err, response.KindNotFound, MsgUserNotFound)
}

// failingStore 所有操作返回错误
type failingStore struct{ err error }

func (f failingStore) CreateUser(context.Context, *model.User) error { return f.err }
func (f failingStore) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, f.err
}
func (f failingStore) GetUserByID(context.Context, string) (*model.User, error) { return nil, f.err }
func (f failingStore) GetUsersByIDs(context.Context, []string) ([]*model.User, error) {
	return nil, f.err
}

func TestService_StoreError(t *testing.T) {
	svc := newTestService(t, failingStore{err: errors.New("connection refused")})
	ctx := context.Background()

	err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "p", UserType: "Donor"})
	assertKind(t, err, response.KindStore, "connection refused")

	_, err = svc.Login(ctx, LoginInput{Email: "a@b.c", Password: "p", UserType: "Donor"})
	assertKind(t, err, response.KindStore, "connection refused")

	_, err = svc.GetCurrentUser(ctx, "u1")
	assertKind(t, err, response.KindStore, "connection refused")
}
