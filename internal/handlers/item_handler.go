package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/metrics"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/services"
	"github.com/shiwutong/lostfound-backend/internal/session"
)

type ItemHandler struct {
	itemService *services.ItemService
	metrics     *metrics.Metrics
}

func NewItemHandler(itemService *services.ItemService, m *metrics.Metrics) *ItemHandler {
	return &ItemHandler{itemService: itemService, metrics: m}
}

// List returns a handler for GET /api/{kind}-items.
func (h *ItemHandler) List(kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, page, err := h.itemService.List(c.UserContext(), kind, services.ListFilter{
			Category:  c.Query("category"),
			TimeRange: c.Query("timeRange"),
			Location:  c.Query("location"),
			Search:    c.Query("search"),
			Page:      c.QueryInt("page", 1),
			PageSize:  c.QueryInt("limit", 0),
		})
		if err != nil {
			return respondError(c, err)
		}
		return success(c, fiber.StatusOK, dto.ListResponse{Items: items, Pagination: page}, "")
	}
}

// Create returns a handler for POST /api/{kind}-items. The body is a
// multipart form with an optional "image" file; a JSON body is accepted too.
func (h *ItemHandler) Create(kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.CreateItemRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}

		var image *multipart.FileHeader
		if fh, err := c.FormFile("image"); err == nil {
			image = fh
		}

		id, err := h.itemService.Create(c.UserContext(), kind, &req, session.OptionalUserID(c), image)
		if err != nil {
			return respondError(c, err)
		}

		h.metrics.ListingsCreated.WithLabelValues(string(kind)).Inc()
		return success(c, fiber.StatusCreated, fiber.Map{"itemId": id}, "Item submitted")
	}
}

// Detail returns a handler for GET /api/{kind}-items/:itemId.
func (h *ItemHandler) Detail(kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "itemId")
		if err != nil {
			return respondError(c, services.ErrItemNotFound)
		}

		detail, err := h.itemService.Detail(c.UserContext(), kind, id, viewer(c))
		if err != nil {
			return respondError(c, err)
		}
		return success(c, fiber.StatusOK, detail, "")
	}
}

// Image handles GET /api/images/:itemId?type=lost|found.
func (h *ItemHandler) Image(c *fiber.Ctx) error {
	kind, ok := models.ParseKind(c.Query("type"))
	if !ok {
		return respondError(c, services.ErrInvalidItemType)
	}
	id, err := idParam(c, "itemId")
	if err != nil {
		return respondError(c, services.ErrItemNotFound)
	}

	url, err := h.itemService.Image(c.UserContext(), kind, id, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"imageUrl": url}, "")
}

func viewer(c *fiber.Ctx) services.Viewer {
	return services.Viewer{UserID: session.OptionalUserID(c), IsAdmin: session.IsAdmin(c)}
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 0)
	if err != nil || n == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(n), nil
}

func kindParam(c *fiber.Ctx) (models.Kind, error) {
	kind, ok := models.ParseKind(c.Params("itemType"))
	if !ok {
		return "", services.ErrInvalidItemType
	}
	return kind, nil
}
