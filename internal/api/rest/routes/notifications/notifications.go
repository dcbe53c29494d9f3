package notifications

import (
	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/query"
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
		URI:    "/notifications",
		Method: rest.GET,
		Children: []rest.Route{
			&unreadRoute{r.Ctx},
			&readRoute{r.Ctx},
			&readAllRoute{r.Ctx},
		},
	}
}

type NotificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

// Handler lists the newest notifications of a user
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	userID := ctx.Query("userId")
	if userID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	limit, err := ctx.QueryInt("limit", query.DefaultNotificationLimit)
	if err != nil {
		return err
	}

	items, qerr := r.Ctx.Inst().Query.Notifications(ctx, userID, limit).Items()
	if qerr != nil {
		return errors.From(qerr)
	}

	if items == nil {
		items = []model.Notification{}
	}

	return ctx.JSON(rest.OK, NotificationsResponse{Notifications: items})
}

type unreadRoute struct {
	Ctx global.Context
}

func (r *unreadRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/unread-count",
		Method: rest.GET,
	}
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func (r *unreadRoute) Handler(ctx *rest.Ctx) rest.APIError {
	userID := ctx.Query("userId")
	if userID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	n, err := r.Ctx.Inst().Query.UnreadNotificationCount(ctx, userID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, CountResponse{Count: n})
}

type readRoute struct {
	Ctx global.Context
}

func (r *readRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{id}/read",
		Method: rest.PATCH,
	}
}

type NotificationResponse struct {
	Message      string             `json:"message"`
	Notification model.Notification `json:"notification"`
}

func (r *readRoute) Handler(ctx *rest.Ctx) rest.APIError {
	id, err := ctx.UserValue("id").ObjectID()
	if err != nil {
		return errors.From(err)
	}

	n, err := r.Ctx.Inst().Mutate.MarkNotificationRead(ctx, id)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, NotificationResponse{
		Message:      "Notification marked as read",
		Notification: n,
	})
}

type readAllRoute struct {
	Ctx global.Context
}

func (r *readAllRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/read-all",
		Method: rest.PATCH,
	}
}

type ReadAllRequest struct {
	UserID string `json:"userId"`
}

type ReadAllResponse struct {
	Message  string `json:"message"`
	Modified int64  `json:"modified"`
}

func (r *readAllRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body ReadAllRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	if body.UserID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	n, err := r.Ctx.Inst().Mutate.MarkAllNotificationsRead(ctx, body.UserID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, ReadAllResponse{
		Message:  "All notifications marked as read",
		Modified: n,
	})
}
