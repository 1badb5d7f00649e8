package api

import (
	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/ask"
	"github.com/banko-ai/banko-backend/internal/services/request"
	"github.com/banko-ai/banko-backend/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// AskHandler handles natural-language questions about expenses end-to-end.
type AskHandler struct {
	askSvc  *ask.Service
	reqSvc  *request.BaseService
	respSvc *response.BaseService
}

// NewAskHandler wires up dependencies and initializes the ask handler.
func NewAskHandler(askSvc *ask.Service, reqSvc *request.BaseService, respSvc *response.BaseService) *AskHandler {
	return &AskHandler{
		askSvc:  askSvc,
		reqSvc:  reqSvc,
		respSvc: respSvc,
	}
}

// Ask answers one question, serving from the semantic cache when possible.
func (h *AskHandler) Ask(c *fiber.Ctx) error {
	requestID := h.reqSvc.GetRequestID(c)

	var req models.AskRequest
	if err := c.BodyParser(&req); err != nil {
		fiberlog.Warnf("[%s] Ask: invalid request body: %v", requestID, err)
		return h.respSvc.Error(c, fiber.StatusBadRequest, "invalid request body", string(models.ErrorTypeValidation), "INVALID_BODY")
	}

	resp, err := h.askSvc.Ask(c.UserContext(), &req, requestID)
	if err != nil {
		sanitized := models.SanitizeError(err)
		fiberlog.Errorf("[%s] Ask: request failed: %v", requestID, err)
		return h.respSvc.Error(c, sanitized.GetStatusCode(), sanitized.Message, string(sanitized.Type), sanitized.Code)
	}

	return h.respSvc.Success(c, resp)
}
