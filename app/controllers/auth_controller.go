package controllers

import (
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
)

type AuthController struct {
	svc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// SignUp handles POST /api/auth/signup.
func (a *AuthController) SignUp(c *ctx.Context) {
	var in services.SignUpInput
	if !c.DecodeJSON(&in) {
		return
	}
	p, err := a.svc.SignUp(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

// SignIn handles POST /api/auth/signin.
func (a *AuthController) SignIn(c *ctx.Context) {
	var in services.SignInInput
	if !c.DecodeJSON(&in) {
		return
	}
	res, err := a.svc.SignIn(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(res)
}

func (a *AuthController) SignOut(c *ctx.Context) {
	if err := a.svc.SignOut(c.Context(), c.Session()); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

func (a *AuthController) Me(c *ctx.Context) {
	me, err := a.svc.Me(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(me)
}
