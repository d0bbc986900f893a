package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/user"
)

type authApi struct {
	svc *user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := authenticate(ctx, data.Username, data.Password, data.UserType, api.svc)
	if err != nil {
		return err
	}

	token, err := GenerateToken(GetAccountClaims(acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User: PublicAccount{
			ID:       acct.ID,
			Name:     acct.Name,
			Username: acct.Username,
			UserType: acct.Role,
		},
	})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		UserType string `json:"user_type" validate:"required,oneof=student admin"`
	}

	// PublicAccount is the public-safe identity projection returned on login.
	PublicAccount struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
		UserType string `json:"user_type"`
	}

	LoginResponse struct {
		Token string        `json:"token"`
		User  PublicAccount `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}
