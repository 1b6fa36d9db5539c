package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/server/models"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationInput() validation.RegistrationInput {
	return validation.RegistrationInput{
		Email:    "a@b.com",
		Password: "garbage8",
		Username: "ab",
		Properties: &validation.PropertiesInput{
			FirstName: "Ada", LastName: "Byron", City: "London", Country: "UK",
		},
	}
}

func newRegistrationService(t *testing.T) (*RegistrationService, *recordingStore, *countingHasher) {
	t.Helper()
	log, _ := newLogger()
	store := newRecordingStore()
	hasher := newHasher(t)
	return NewRegistrationService(store, hasher, log), store, hasher
}

func TestRegister_Success(t *testing.T) {
	svc, store, hasher := newRegistrationService(t)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, err := svc.Register(context.Background(), registrationInput())
	require.NoError(t, err)

	_, err = uuid.Parse(res.UserID)
	require.NoError(t, err, "user id is a uuid")
	assert.Equal(t, "a@b.com", res.Email)
	assert.Equal(t, Link{ID: "/users/a@b.com"}, res.Link)

	stored := store.users["a@b.com"]
	want := models.User{
		Email:      "a@b.com",
		UserID:     res.UserID,
		Username:   "ab",
		Properties: models.Properties{FirstName: "Ada", LastName: "Byron", City: "London", Country: "UK"},
		CreatedAt:  fixed,
		ModifiedAt: fixed,
	}
	if diff := cmp.Diff(want, stored, cmpopts.IgnoreFields(models.User{}, "PasswordHash")); diff != "" {
		t.Fatalf("stored user mismatch (-want +got):\n%s", diff)
	}

	assert.NotContains(t, stored.PasswordHash, "garbage8")
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$scrypt$"))
	assert.True(t, hasher.Verify(context.Background(), "garbage8", stored.PasswordHash))
}

func TestRegister_Duplicate(t *testing.T) {
	svc, store, _ := newRegistrationService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, registrationInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registrationInput())
	assert.ErrorIs(t, err, common.ErrorConflict)
	assert.Equal(t, first.UserID, store.users["a@b.com"].UserID, "existing record is untouched")
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, store, _ := newRegistrationService(t)
	store.createErr = errors.New("provisioned throughput exceeded")

	_, err := svc.Register(context.Background(), registrationInput())
	assert.ErrorIs(t, err, common.ErrorUpstream)
}

func TestRegister_HashFailure(t *testing.T) {
	svc, store, hasher := newRegistrationService(t)
	hasher.hashErr = errors.New("derive failed")

	_, err := svc.Register(context.Background(), registrationInput())
	assert.ErrorIs(t, err, common.ErrorUnableToSave)
	assert.Empty(t, store.Calls(), "nothing is written when hashing fails")
}

func TestRegister_MissingPassword(t *testing.T) {
	svc, store, _ := newRegistrationService(t)
	in := registrationInput()
	in.Password = ""

	_, err := svc.Register(context.Background(), in)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password is required", verr.Message)
	assert.Empty(t, store.Calls())
}

func TestUserLink(t *testing.T) {
	assert.Equal(t, "/users/a@b.com", userLink("a@b.com"))
	assert.Equal(t, "/users/first%20last@b.com", userLink("first last@b.com"))
	assert.Equal(t, "/users/a+tag@b.com", userLink("a+tag@b.com"))
}

func TestDeregister(t *testing.T) {
	svc, store, _ := newRegistrationService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registrationInput())
	require.NoError(t, err)

	res, err := svc.Deregister(ctx, validation.DeregistrationInput{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, &DeregistrationResult{Email: "a@b.com"}, res)
	assert.NotContains(t, store.users, "a@b.com")

	res, err = svc.Deregister(ctx, validation.DeregistrationInput{Email: "a@b.com"})
	require.NoError(t, err, "deleting an absent account succeeds")
	assert.Equal(t, "a@b.com", res.Email)

	assert.Equal(t, []string{"create:a@b.com", "delete:a@b.com", "delete:a@b.com"}, store.Calls())
}

func TestDeregister_StoreFailure(t *testing.T) {
	svc, store, _ := newRegistrationService(t)
	store.deleteErr = errors.New("access denied")

	_, err := svc.Deregister(context.Background(), validation.DeregistrationInput{Email: "a@b.com"})
	assert.ErrorIs(t, err, common.ErrorUpstream)
}

func TestRegisterDeregisterLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "a@b.com", "garbage8")
	_, err := f.reg.Deregister(ctx, validation.DeregistrationInput{Email: "a@b.com"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, validation.LoginInput{Email: "a@b.com", Password: "garbage8"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
