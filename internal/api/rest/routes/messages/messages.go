package messages

import (
	"time"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/api/rest/middleware"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
	"go.uber.org/zap"
)

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI: "/messages",
		Children: []rest.Route{
			&sendRoute{r.Ctx, middleware.NewLimiter()},
			&conversationRoute{r.Ctx},
			&conversationsRoute{r.Ctx},
			&unreadRoute{r.Ctx},
		},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	return errors.ErrUnknownRoute()
}

type sendRoute struct {
	Ctx     global.Context
	limiter *middleware.Limiter
}

func (r *sendRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/send",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			rest.Wrap(middleware.RateLimit(r.limiter, string(rest.ClientIPKey), "send-message", 30, time.Minute)),
		},
	}
}

type SendRequest struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	MessageText string `json:"messageText"`
}

type SendResponse struct {
	Message string        `json:"message"`
	Data    model.Message `json:"data"`
}

func (r *sendRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body SendRequest
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	msg, err := r.Ctx.Inst().Mutate.SendMessage(ctx, body.SenderID, body.ReceiverID, body.MessageText)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, SendResponse{
		Message: "Message sent",
		Data:    msg,
	})
}

type conversationRoute struct {
	Ctx global.Context
}

func (r *conversationRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/conversation/{userId}",
		Method: rest.GET,
	}
}

type ConversationResponse struct {
	Messages []model.Message `json:"messages"`
}

// Handler returns the conversation between two users, oldest first,
// and marks what the requesting user received as read
func (r *conversationRoute) Handler(ctx *rest.Ctx) rest.APIError {
	userID, ok := ctx.UserValue("userId").String()
	if !ok {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	otherID := ctx.Query("with")
	if otherID == "" {
		return errors.ErrMissingRequiredField().SetDetail("with is required")
	}

	msgs, err := r.Ctx.Inst().Query.Conversation(ctx, userID, otherID).Items()
	if err != nil {
		return errors.From(err)
	}

	if msgs == nil {
		msgs = []model.Message{}
	}

	if _, err := r.Ctx.Inst().Mutate.MarkConversationRead(ctx, userID, otherID); err != nil {
		zap.S().Warnw("failed to mark conversation read",
			"user_id", userID,
			"other_id", otherID,
			"error", err,
		)
	}

	return ctx.JSON(rest.OK, ConversationResponse{Messages: msgs})
}

type conversationsRoute struct {
	Ctx global.Context
}

func (r *conversationsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/conversations",
		Method: rest.GET,
	}
}

func (r *conversationsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	userID := ctx.Query("userId")
	if userID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	convs, err := r.Ctx.Inst().Query.Conversations(ctx, userID)
	if err != nil {
		return errors.From(err)
	}

	if convs == nil {
		convs = []query.ConversationSummary{}
	}

	return ctx.JSON(rest.OK, convs)
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

	n, err := r.Ctx.Inst().Query.UnreadMessageCount(ctx, userID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, CountResponse{Count: n})
}
