package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/services"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries one message per invalid field
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// RecordHandlers serves the JSON API over the registration form
type RecordHandlers struct {
	logger *logging.SafeLogger
	form   *services.FormController
	store  services.RecordStore
	// backend names the store in health responses
	backend string
}

// NewRecordHandlers creates a new record handlers instance
func NewRecordHandlers(logger *logging.SafeLogger, form *services.FormController, store services.RecordStore, backend string) *RecordHandlers {
	return &RecordHandlers{
		logger:  logger,
		form:    form,
		store:   store,
		backend: backend,
	}
}

// ListRecords godoc
// @Summary Listar cadastros
// @Description Retorna todos os cadastros na ordem em que foram criados
// @Tags records
// @Produce json
// @Success 200 {array} models.Record
// @Router /records [get]
func (h *RecordHandlers) ListRecords(c *gin.Context) {
	c.JSON(http.StatusOK, h.form.Records())
}

// CreateRecord godoc
// @Summary Criar cadastro
// @Description Valida e armazena um novo cadastro. Campos com máscara aceitam apenas os dígitos ou o valor já formatado.
// @Tags records
// @Accept json
// @Produce json
// @Param record body models.RecordInput true "Dados do cadastro"
// @Success 201 {object} models.Record
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /records [post]
func (h *RecordHandlers) CreateRecord(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "CreateRecord")
	defer span.End()

	var input models.RecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Dados inválidos: " + err.Error()})
		return
	}

	result := h.form.Create(ctx, input.ToMap())
	span.SetAttributes(attribute.String("form.state", string(result.State)))

	switch {
	case result.Err != nil:
		utils.RecordErrorInSpan(span, result.Err, nil)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Erro interno do servidor"})
	case len(result.Errors) > 0:
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Errors: result.Errors})
	default:
		c.JSON(http.StatusCreated, result.Record)
	}
}

// DeleteRecord godoc
// @Summary Excluir cadastro
// @Description Remove um cadastro pelo ID
// @Tags records
// @Produce json
// @Param id path string true "ID do cadastro"
// @Success 204 "Cadastro removido"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /records/{id} [delete]
func (h *RecordHandlers) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	err := h.form.Remove(c.Request.Context(), id)
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Cadastro não encontrado"})
	case err != nil:
		h.logger.Error("failed to delete record", zap.String("record_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Erro interno do servidor"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// HealthCheck godoc
// @Summary Verificação de saúde
// @Description Verifica se o armazenamento de cadastros está acessível
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "Armazenamento acessível"
// @Failure 503 {object} HealthResponse "Armazenamento indisponível"
// @Router /health [get]
func (h *RecordHandlers) HealthCheck(c *gin.Context) {
	startTime := time.Now()
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HealthCheck")
	defer span.End()
	defer utils.AddTimingToSpan(span, startTime)

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  map[string]string{h.backend: "healthy"},
	}

	if err := h.store.Ping(ctx); err != nil {
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"store.backend": h.backend})
		h.logger.Warn("record store unreachable", zap.String("backend", h.backend), zap.Error(err))
		health.Status = "unhealthy"
		health.Services[h.backend] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	span.SetAttributes(attribute.String("health.status", health.Status))
	c.JSON(http.StatusOK, health)
}
