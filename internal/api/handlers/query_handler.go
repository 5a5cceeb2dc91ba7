package handlers

import (
	"errors"
	"strings"

	"holding-rag/internal/dto"
	"holding-rag/internal/repository"
	"holding-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type QueryHandler struct {
	queryService *service.QueryService
	logger       *zap.Logger
}

func NewQueryHandler(queryService *service.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// Query godoc
// @Summary Answer a question from the caller's document collection
// @Description Retrieve relevant passages from the tenant index and generate an answer
// @Tags query
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.QueryRequest true "Query request"
// @Success 200 {object} dto.QueryResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /query [post]
func (h *QueryHandler) Query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	identity := identityFromContext(c)

	answer, err := h.queryService.HandleQuery(c.Context(), identity, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden), errors.Is(err, repository.ErrUnknownTenant):
			h.logger.Warn("Query refused",
				zap.String("username", identity.Username),
				zap.Error(err),
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "نام کاربری نامعتبر",
			})
		case errors.Is(err, service.ErrNoAnswerFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "پاسخی برای پرسش شما یافت نشد",
			})
		default:
			// Internal detail stays in the log, never in the response.
			h.logger.Error("Query failed",
				zap.String("username", identity.Username),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "خطای داخلی سرور. لطفاً دوباره تلاش کنید",
			})
		}
	}

	return c.JSON(dto.QueryResponse{Response: answer})
}
