package auth

import (
	"time"

	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/internal/api/rest/middleware"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
)

type Route struct {
	Ctx     global.Context
	limiter *middleware.Limiter
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx, middleware.NewLimiter()}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI: "/auth",
		Children: []rest.Route{
			&registerRoute{r.Ctx, r.limiter},
			&loginRoute{r.Ctx, r.limiter},
			&followRoute{r.Ctx},
			&profileStatsRoute{r.Ctx},
			&searchRoute{r.Ctx},
			&updateProfileRoute{r.Ctx},
			&suggestionsRoute{r.Ctx},
		},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	return errors.ErrUnknownRoute()
}

type registerRoute struct {
	Ctx     global.Context
	limiter *middleware.Limiter
}

func (r *registerRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/register",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			rest.Wrap(middleware.RateLimit(r.limiter, string(rest.ClientIPKey), "register", 5, time.Minute)),
		},
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
}

type UserResponse struct {
	Message string          `json:"message"`
	User    model.UserModel `json:"user"`
}

func (r *registerRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	u, err := r.Ctx.Inst().Mutate.CreateUser(ctx, mutate.CreateUserOptions{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Bio:      body.Bio,
	})
	if err != nil {
		return errors.From(err)
	}

	ctx.Log().Infow("user registered", "user_id", u.UserID)

	return ctx.JSON(rest.Created, UserResponse{
		Message: "User registered successfully",
		User:    u.ToModel(),
	})
}

type loginRoute struct {
	Ctx     global.Context
	limiter *middleware.Limiter
}

func (r *loginRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/login",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			rest.Wrap(middleware.RateLimit(r.limiter, string(rest.ClientIPKey), "login", 10, time.Minute)),
		},
	}
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r *loginRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	u, err := r.Ctx.Inst().Mutate.Authenticate(ctx, body.Identifier, body.Password)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, UserResponse{
		Message: "Login successful",
		User:    u.ToModel(),
	})
}

type followRoute struct {
	Ctx global.Context
}

func (r *followRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/follow",
		Method: rest.POST,
	}
}

type FollowRequest struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}

type FollowStats struct {
	UserID         string `json:"userId"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
}

type FollowResponse struct {
	Message   string                 `json:"message"`
	Following bool                   `json:"following"`
	Stats     map[string]FollowStats `json:"stats"`
}

func (r *followRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body FollowRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	res, err := r.Ctx.Inst().Mutate.ToggleFollow(ctx, body.FromUserID, body.ToUserID)
	if err != nil {
		return errors.From(err)
	}

	stats := func(u model.User) FollowStats {
		return FollowStats{
			UserID:         u.UserID,
			FollowersCount: len(u.Followers),
			FollowingCount: len(u.Following),
		}
	}

	return ctx.JSON(rest.OK, FollowResponse{
		Message:   utils.Ternary(res.Following, "User followed", "User unfollowed"),
		Following: res.Following,
		Stats: map[string]FollowStats{
			"fromUser": stats(res.From),
			"toUser":   stats(res.To),
		},
	})
}
