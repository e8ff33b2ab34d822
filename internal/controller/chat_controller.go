package controller

import (
	"bufio"
	"context"

	"ai-facilityops-be/internal/dto"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/internal/pkg/serverutils"
	"ai-facilityops-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	StartSession(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{chatService: chatService, logger: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Chat)
	h.Post("session/start", c.StartSession)
	h.Post("session/end", c.EndSession)
	h.Get("history/:sessionId", c.History)
}

// Chat streams the turn as newline-delimited JSON events: zero or more
// token events, then exactly one result (or error) event.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(int64)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.SessionId == "" || req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id and message are required")
	}

	ctx.Set("Content-Type", "application/x-ndjson")
	ctx.Set("Cache-Control", "no-cache")

	// The stream writer runs after the handler returns, so it gets its own
	// context detached from the request lifecycle.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := c.chatService.Stream(context.Background(), userId, &req, w); err != nil {
			c.logger.Error("chat_controller", "turn failed before streaming", map[string]interface{}{
				"error":   err.Error(),
				"session": req.SessionId,
			})
			w.WriteString(`{"type":"error","message":"` + "failed to start the turn" + `"}` + "\n")
			w.Flush()
		}
	}))

	return nil
}

func (c *chatController) StartSession(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(int64)

	res, err := c.chatService.StartSession(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session started", res))
}

func (c *chatController) EndSession(ctx *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.SessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	if err := c.chatService.EndSession(ctx.Context(), req.SessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session ended", nil))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")
	limit := ctx.QueryInt("limit", 50)

	items, err := c.chatService.GetHistory(ctx.Context(), sessionId, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", items))
}
