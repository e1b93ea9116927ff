package handler

import (
	"errors"
	"strconv"

	"go-pharma-exchange/internal/lock"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/service"
	"go-pharma-exchange/internal/storage"
	"go-pharma-exchange/pkg/jwt"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

const genericError = "Something went wrong, please try again"

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrNotFound, fiber.StatusNotFound, ""},
	{repository.ErrNotFound, fiber.StatusNotFound, ""},

	{service.ErrForbidden, fiber.StatusForbidden, ""},
	{service.ErrOwnListing, fiber.StatusForbidden, ""},
	{service.ErrPharmacyOnly, fiber.StatusForbidden, ""},
	{service.ErrUnauthorizedAdmin, fiber.StatusForbidden, ""},
	{service.ErrAccountBlacklisted, fiber.StatusForbidden, "blacklisted"},

	{service.ErrEmailNotFound, fiber.StatusUnauthorized, ""},
	{service.ErrInvalidPassword, fiber.StatusUnauthorized, ""},
	{service.ErrSessionExpired, fiber.StatusUnauthorized, ""},
	{jwt.ErrInvalidToken, fiber.StatusUnauthorized, ""},
	{jwt.ErrMissingToken, fiber.StatusUnauthorized, ""},

	{service.ErrDuplicateOffer, fiber.StatusConflict, "duplicate_offer"},
	{service.ErrEmailRegistered, fiber.StatusConflict, ""},
	{service.ErrRegistrationBusy, fiber.StatusConflict, ""},
	{lock.ErrNotObtained, fiber.StatusConflict, ""},
	{repository.ErrDuplicate, fiber.StatusConflict, ""},

	{service.ErrWrongPassword, fiber.StatusBadRequest, ""},
	{service.ErrInvalidSelection, fiber.StatusBadRequest, ""},
	{service.ErrSelfRating, fiber.StatusBadRequest, ""},
	{service.ErrConfirmationRequired, fiber.StatusBadRequest, "confirmation_required"},
	{service.ErrSeedAdminProtected, fiber.StatusBadRequest, ""},
	{service.ErrInvalidRange, fiber.StatusBadRequest, ""},
	{model.ErrInvalidQuantity, fiber.StatusBadRequest, ""},
	{model.ErrInsufficientQuantity, fiber.StatusBadRequest, ""},
	{model.ErrInvalidActionType, fiber.StatusBadRequest, ""},
	{model.ErrInvalidItemKind, fiber.StatusBadRequest, ""},
	{model.ErrInvalidPrice, fiber.StatusBadRequest, ""},
	{storage.ErrUnsupportedImage, fiber.StatusBadRequest, ""},
}

// fail maps a service error to its HTTP status. Anything unknown is logged in
// full and answered with one generic message.
func fail(c *fiber.Ctx, module string, err error) error {
	var verr *validator.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error(), "fields": verr.Fields})
	}
	var bad badParam
	if errors.As(err, &bad) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": bad.Error()})
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			body := fiber.Map{"error": e.err.Error()}
			if e.code != "" {
				body["code"] = e.code
			}
			return c.Status(e.status).JSON(body)
		}
	}

	logger.LogError(logger.GetLogger(), module, c.Route().Path, c.Method(), nil, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// badParam is a malformed path or query parameter.
type badParam string

func (b badParam) Error() string {
	return "invalid " + string(b)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badParam(name)
	}
	return uint(id), nil
}

func paramPharmacyID(c *fiber.Ctx, name string) (int64, error) {
	id, err := model.ParsePharmacyID(c.Params(name))
	if err != nil || id <= 0 {
		return 0, badParam(name)
	}
	return id, nil
}

func paramKind(c *fiber.Ctx) (model.ItemKind, error) {
	return model.ParseItemKind(c.Params("kind"))
}

func confirmed(c *fiber.Ctx) bool {
	return c.QueryBool("confirm", false)
}
