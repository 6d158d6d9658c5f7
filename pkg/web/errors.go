package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/omnitool-ai/omnitool-sub002/pkg/cdn"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
)

var kindStatus = map[services.Kind]int{
	services.KindInvalid:   fiber.StatusBadRequest,
	services.KindNotFound:  fiber.StatusNotFound,
	services.KindExecution: fiber.StatusUnprocessableEntity,
	services.KindInternal:  fiber.StatusInternalServerError,
}

// problem builds an RFC 9457 body typed by the service error code.
func problem(c fiber.Ctx, kind services.Kind, code string, err error) *problems.Problem {
	return problems.NewStatusProblem(kindStatus[kind]).
		WithInstance(c.Path()).
		WithType(code).
		WithError(err)
}

func respond(c fiber.Ctx, kind services.Kind, code string, err error) error {
	return c.Status(kindStatus[kind]).JSON(problem(c, kind, code, err))
}

func badRequest(c fiber.Ctx, detail string) error {
	return respond(c, services.KindInvalid, "validation_error", errors.New(detail))
}

func notFound(c fiber.Ctx, detail string) error {
	return respond(c, services.KindNotFound, "not_found", errors.New(detail))
}

func handleServiceError(c fiber.Ctx, err error) error {
	if errors.Is(err, cdn.ErrNotFound) {
		return notFound(c, err.Error())
	}

	return respond(c, services.KindOf(err), services.CodeOf(err), err)
}
