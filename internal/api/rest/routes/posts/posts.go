package posts

import (
	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
)

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/posts",
		Method: rest.GET,
		Children: []rest.Route{
			&createRoute{r.Ctx},
			&likeRoute{r.Ctx},
			&commentRoute{r.Ctx},
			&deleteRoute{r.Ctx},
		},
	}
}

type PostsResponse struct {
	Posts []model.Post `json:"posts"`
}

// Handler lists posts, optionally restricted to one owner
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	posts, err := r.Ctx.Inst().Query.Posts(ctx, ctx.Query("ownerId")).Items()
	if err != nil {
		return errors.From(err)
	}

	if posts == nil {
		posts = []model.Post{}
	}

	return ctx.JSON(rest.OK, PostsResponse{Posts: posts})
}

type createRoute struct {
	Ctx global.Context
}

func (r *createRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "",
		Method: rest.POST,
	}
}

type CreatePostRequest struct {
	Caption       string          `json:"caption"`
	MediaURL      *string         `json:"mediaUrl"`
	MediaType     model.MediaType `json:"mediaType"`
	OwnerID       string          `json:"ownerId"`
	OwnerUsername string          `json:"ownerUsername"`
}

type PostResponse struct {
	Message string     `json:"message"`
	Post    model.Post `json:"post"`
}

func (r *createRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body CreatePostRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	if body.OwnerID == "" {
		return errors.ErrMissingRequiredField().SetDetail("ownerId is required")
	}

	p, err := r.Ctx.Inst().Mutate.CreatePost(ctx, mutate.CreatePostOptions{
		Caption:       body.Caption,
		MediaURL:      body.MediaURL,
		MediaType:     body.MediaType,
		OwnerID:       body.OwnerID,
		OwnerUsername: body.OwnerUsername,
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, PostResponse{
		Message: "Post created",
		Post:    p,
	})
}
