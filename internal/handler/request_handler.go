package handler

import (
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestHandler struct {
	service service.RequestService
	log     *zap.Logger
}

func NewRequestHandler(s service.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{service: s, log: log}
}

type decisionBody struct {
	Note string `json:"note"`
}

func requestResponses(requests []model.Request) []model.RequestResponse {
	out := make([]model.RequestResponse, len(requests))
	for i := range requests {
		out[i] = requests[i].ToResponse()
	}
	return out
}

// GetRequests lists requests. Filters: ?status=, ?product_id=,
// ?requested_by=<user id> or ?mine=true for the caller's own.
func (h *RequestHandler) GetRequests(c *fiber.Ctx) error {
	filter := repository.RequestFilter{Status: model.RequestStatus(c.Query("status"))}

	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		filter.ProductID = &id
	}
	if v := c.Query("requested_by"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "Invalid user ID")
		}
		filter.RequestedBy = &id
	}
	if c.QueryBool("mine") {
		id := middleware.Actor(c).UserID
		filter.RequestedBy = &id
	}

	requests, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(requestResponses(requests))
}

func (h *RequestHandler) GetPendingCount(c *fiber.Ctx) error {
	n, err := h.service.PendingCount(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"pending": n})
}

func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}
	req, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(req.ToResponse())
}

func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	var in service.CreateRequestInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	req, err := h.service.Create(c.UserContext(), in, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Request created", "data": req.ToResponse()})
}

func (h *RequestHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}
	var in service.SetStatusInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	return h.decide(c, id, in)
}

func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	return h.decideAs(c, model.RequestApproved)
}

func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	return h.decideAs(c, model.RequestRejected)
}

func (h *RequestHandler) decideAs(c *fiber.Ctx, status model.RequestStatus) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}
	var body decisionBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}
	return h.decide(c, id, service.SetStatusInput{Status: status, Note: body.Note})
}

func (h *RequestHandler) decide(c *fiber.Ctx, id uuid.UUID, in service.SetStatusInput) error {
	req, err := h.service.SetStatus(c.UserContext(), id, in, middleware.Actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Request " + string(req.Status), "data": req.ToResponse()})
}

func (h *RequestHandler) DeleteRequest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Request deleted"})
}
