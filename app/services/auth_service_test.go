package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/auth"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

func TestSignUpSignInSignOut(t *testing.T) {
	db := openDB(t)
	store := session.NewMemoryStore()
	svc := services.NewAuthService(db, store)

	p, err := svc.SignUp(bg, services.SignUpInput{
		Email:    "  Asha@Shop.IO ",
		Password: "correct-horse",
		FullName: "Asha",
		Role:     models.RoleVendor,
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@shop.io", p.Email)
	assert.Equal(t, models.RoleVendor, p.Role)

	_, err = svc.SignUp(bg, services.SignUpInput{Email: "asha@shop.io", Password: "another-pass", FullName: "Dup"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = svc.SignIn(bg, services.SignInInput{Email: "asha@shop.io", Password: "wrong-password"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	res, err := svc.SignIn(bg, services.SignInInput{Email: "ASHA@shop.io", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.UserID)
	assert.Equal(t, models.RoleVendor, claims.Role)

	sess, err := store.Find(bg, claims.SessionID)
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(bg, sess))
	_, err = store.Find(bg, claims.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSignUpCannotChooseAdmin(t *testing.T) {
	svc := services.NewAuthService(openDB(t), session.NewMemoryStore())
	_, err := svc.SignUp(bg, services.SignUpInput{
		Email: "root@shop.io", Password: "correct-horse", FullName: "Root", Role: models.RoleAdmin,
	})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")
}

func TestMeIncludesStore(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	svc := services.NewAuthService(db, session.NewMemoryStore())

	me, err := svc.Me(bg, vendor.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Vendor)
	assert.Equal(t, "v@shop.io store", me.Vendor.StoreName)

	me, err = svc.Me(bg, buyer.ID)
	require.NoError(t, err)
	assert.Nil(t, me.Vendor)
}
