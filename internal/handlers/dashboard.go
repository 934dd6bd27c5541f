package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/services"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const dashboardTemplate = "dashboard.html"

// Templates parses the embedded HTML templates for gin's renderer
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// fieldView is one form input as rendered
type fieldView struct {
	Name        string
	Placeholder string
	Value       string
	Error       string
	InputMode   string
	Multiline   bool
	MaxLength   int
}

// recordRow is one table row; PhoneURI is empty when the phone cannot be parsed.
// PhoneURI is built from E.164 digits only, so it is marked safe for href.
type recordRow struct {
	models.Record
	PhoneURI template.URL
}

type dashboardView struct {
	Fields  []fieldView
	Rows    []recordRow
	Failure string
}

var fieldPlaceholders = map[string]string{
	models.FieldName:    "Nome",
	models.FieldBirth:   "Data de nascimento",
	models.FieldCPF:     "CPF",
	models.FieldPhone:   "Celular",
	models.FieldEmail:   "Email",
	models.FieldAddress: "Endereço",
	models.FieldObs:     "Observações",
}

// DashboardHandlers serves the HTML form and record table
type DashboardHandlers struct {
	logger *logging.SafeLogger
	form   *services.FormController
}

// NewDashboardHandlers creates a new dashboard handlers instance
func NewDashboardHandlers(logger *logging.SafeLogger, form *services.FormController) *DashboardHandlers {
	return &DashboardHandlers{
		logger: logger,
		form:   form,
	}
}

// Show renders the form with its current values and the record table
func (h *DashboardHandlers) Show(c *gin.Context) {
	h.render(c, http.StatusOK, h.form.Values(), h.form.Errors(), "")
}

// Submit handles the HTML form post. Invalid submissions are re-rendered with
// one message per field; accepted ones redirect back to the dashboard.
func (h *DashboardHandlers) Submit(c *gin.Context) {
	data := make(map[string]string, len(models.FieldNames))
	for _, name := range h.form.FieldNames() {
		data[name] = c.PostForm(name)
	}

	result := h.form.Submit(c.Request.Context(), data)
	switch {
	case result.Err != nil:
		h.render(c, http.StatusInternalServerError, result.Values, result.Errors,
			"Não foi possível salvar o cadastro. Tente novamente.")
	case len(result.Errors) > 0:
		h.render(c, http.StatusUnprocessableEntity, result.Values, result.Errors, "")
	default:
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// Delete removes a record and redirects back to the dashboard
func (h *DashboardHandlers) Delete(c *gin.Context) {
	id := c.Param("id")
	err := h.form.Remove(c.Request.Context(), id)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		h.render(c, http.StatusInternalServerError, h.form.Values(), h.form.Errors(),
			"Não foi possível excluir o cadastro. Tente novamente.")
		return
	}
	if err != nil {
		h.logger.Warn("delete of unknown record", zap.String("record_id", id))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *DashboardHandlers) render(c *gin.Context, status int, values, fieldErrors map[string]string, failure string) {
	view := dashboardView{Failure: failure}

	for _, name := range h.form.FieldNames() {
		field := fieldView{
			Name:        name,
			Placeholder: fieldPlaceholders[name],
			Value:       values[name],
			Error:       fieldErrors[name],
		}
		switch name {
		case models.FieldBirth, models.FieldCPF, models.FieldPhone:
			field.InputMode = "numeric"
		case models.FieldObs:
			field.Multiline = true
			field.MaxLength = models.ObsMaxLength
		}
		view.Fields = append(view.Fields, field)
	}

	for _, record := range h.form.Records() {
		row := recordRow{Record: record}
		if uri, ok := utils.PhoneTelURI(record.Phone); ok {
			row.PhoneURI = template.URL(uri)
		}
		view.Rows = append(view.Rows, row)
	}

	c.HTML(status, dashboardTemplate, view)
}
