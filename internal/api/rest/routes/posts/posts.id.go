package posts

import (
	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
)

type likeRoute struct {
	Ctx global.Context
}

func (r *likeRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{id}/like",
		Method: rest.POST,
	}
}

type UserRequest struct {
	UserID string `json:"userId"`
}

type LikeResponse struct {
	Message    string   `json:"message"`
	Liked      bool     `json:"liked"`
	TotalLikes int      `json:"totalLikes"`
	LikedBy    []string `json:"likedBy"`
}

func (r *likeRoute) Handler(ctx *rest.Ctx) rest.APIError {
	id, err := ctx.UserValue("id").ObjectID()
	if err != nil {
		return errors.From(err)
	}

	var body UserRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	res, err := r.Ctx.Inst().Mutate.ToggleLike(ctx, id, body.UserID)
	if err != nil {
		return errors.From(err)
	}

	msg := "Post unliked"
	if res.Liked {
		msg = "Post liked"
	}

	return ctx.JSON(rest.OK, LikeResponse{
		Message:    msg,
		Liked:      res.Liked,
		TotalLikes: res.Post.Likes,
		LikedBy:    res.Post.LikedBy,
	})
}

type commentRoute struct {
	Ctx global.Context
}

func (r *commentRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{id}/comments",
		Method: rest.POST,
	}
}

type CommentRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type CommentResponse struct {
	Message       string        `json:"message"`
	Comment       model.Comment `json:"comment"`
	TotalComments int           `json:"totalComments"`
}

func (r *commentRoute) Handler(ctx *rest.Ctx) rest.APIError {
	id, err := ctx.UserValue("id").ObjectID()
	if err != nil {
		return errors.From(err)
	}

	var body CommentRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	res, err := r.Ctx.Inst().Mutate.AddComment(ctx, id, body.Text, body.Author)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, CommentResponse{
		Message:       "Comment added",
		Comment:       res.Comment,
		TotalComments: len(res.Post.Comments),
	})
}

type deleteRoute struct {
	Ctx global.Context
}

func (r *deleteRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{id}",
		Method: rest.DELETE,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (r *deleteRoute) Handler(ctx *rest.Ctx) rest.APIError {
	id, err := ctx.UserValue("id").ObjectID()
	if err != nil {
		return errors.From(err)
	}

	var body UserRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	if err := r.Ctx.Inst().Mutate.DeletePost(ctx, id, body.UserID); err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, MessageResponse{Message: "Post deleted"})
}
