package auth

import (
	"strings"

	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
)

type profileStatsRoute struct {
	Ctx global.Context
}

func (r *profileStatsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/profile-stats",
		Method: rest.GET,
	}
}

func (r *profileStatsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	userID := ctx.Query("userId")
	if userID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	stats, err := r.Ctx.Inst().Query.ProfileStats(ctx, userID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, stats)
}

type searchRoute struct {
	Ctx global.Context
}

func (r *searchRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/search",
		Method: rest.GET,
	}
}

type SearchResponse struct {
	Users []model.UserPartialModel `json:"users"`
}

func (r *searchRoute) Handler(ctx *rest.Ctx) rest.APIError {
	term := strings.TrimSpace(ctx.Query("q"))
	if term == "" {
		return ctx.JSON(rest.OK, SearchResponse{Users: []model.UserPartialModel{}})
	}

	users, err := r.Ctx.Inst().Query.SearchUsers(ctx, term).Items()
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, SearchResponse{
		Users: utils.Map(users, func(u model.User) model.UserPartialModel {
			return u.ToPartial()
		}),
	})
}

type updateProfileRoute struct {
	Ctx global.Context
}

func (r *updateProfileRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/update-profile",
		Method: rest.POST,
	}
}

type UpdateProfileRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
}

func (r *updateProfileRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	u, err := r.Ctx.Inst().Mutate.UpdateProfile(ctx, mutate.UpdateProfileOptions{
		UserID:   body.UserID,
		Username: body.Username,
		Email:    body.Email,
		FullName: body.FullName,
		Bio:      body.Bio,
	})
	if err != nil {
		return errors.From(err)
	}

	ctx.Log().Infow("profile updated", "user_id", u.UserID)

	return ctx.JSON(rest.OK, UserResponse{
		Message: "Profile updated successfully",
		User:    u.ToModel(),
	})
}

type suggestionsRoute struct {
	Ctx global.Context
}

func (r *suggestionsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/suggestions",
		Method: rest.GET,
	}
}

// Handler lists up to five recent users the caller does not follow yet
func (r *suggestionsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	users, err := r.Ctx.Inst().Query.Suggestions(ctx, ctx.Query("userId")).Items()
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, utils.Map(users, func(u model.User) model.UserPartialModel {
		return u.ToPartial()
	}))
}
