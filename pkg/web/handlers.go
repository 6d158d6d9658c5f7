package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
)

type APIHandlers struct {
	componentService *services.Component
	files            protocol.CDN
	validator        *validator.Validate
}

// NewAPIHandlers wires the handlers. files may be nil, which disables /fid.
func NewAPIHandlers(
	componentService *services.Component,
	files protocol.CDN,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		componentService: componentService,
		files:            files,
		validator:        validator,
	}
}

func (h *APIHandlers) ListComponents(c fiber.Ctx) error {
	list := h.componentService.ListComponents(c.Context(), services.ListComponentsRequest{
		Namespace: c.Query("namespace"),
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
	})

	return c.JSON(ComponentListResponse{Components: list, TotalCount: len(list)})
}

func (h *APIHandlers) GetComponent(c fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Component key is required")
	}

	format, err := h.componentService.GetComponent(c.Context(), key)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(format)
}

func (h *APIHandlers) BuildComponent(c fiber.Ctx) error {
	key := c.Params("key")

	var req BuildComponentRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.componentService.BuildNode(c.Context(), key, req.Node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ExecuteComponent(c fiber.Ctx) error {
	key := c.Params("key")

	var req ExecuteComponentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.componentService.Execute(c.Context(), key, req.toService())
	if err != nil {
		if kind := services.KindOf(err); result != nil && kind == services.KindExecution {
			return c.Status(kindStatus[kind]).JSON(ExecuteComponentResponse{
				ExecuteResult: result,
				Problem:       problem(c, kind, services.CodeOf(err), err),
			})
		}

		return handleServiceError(c, err)
	}

	return c.JSON(ExecuteComponentResponse{ExecuteResult: result})
}

func (h *APIHandlers) ListSockets(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sockets": h.componentService.Sockets(c.Context())})
}

func (h *APIHandlers) CanConnect(c fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		return badRequest(c, "Both from and to sockets are required")
	}

	ok, err := h.componentService.CanConnect(from, to)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(CanConnectResponse{From: from, To: to, Compatible: ok})
}

// GetFile serves a stored resource by fid, with or without an extension.
func (h *APIHandlers) GetFile(c fiber.Ctx) error {
	if h.files == nil {
		return notFound(c, "File storage is not configured")
	}

	fid, ok := models.ParseFURL(models.FidScheme + c.Params("fid"))
	if !ok {
		return badRequest(c, "Invalid file id")
	}

	handle, err := h.files.Get(c.Context(), models.Handle{FID: fid}, protocol.GetOptions{}, protocol.GetFormatFile)
	if err != nil {
		return handleServiceError(c, err)
	}

	if handle == nil {
		return notFound(c, "file not found")
	}

	if handle.MimeType != "" {
		c.Set(fiber.HeaderContentType, handle.MimeType)
	}

	return c.Send(handle.Data)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	count := len(h.componentService.ListComponents(c.Context(), services.ListComponentsRequest{}))

	status := http.StatusOK
	if count == 0 {
		status = http.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":     http.StatusText(status),
		"components": count,
	})
}
