package handlers

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/services"
	"github.com/stretchr/testify/require"
)

// brokenStore loads fine but fails every mutation with err
type brokenStore struct {
	services.RecordStore
	err error
}

func (s brokenStore) Append(context.Context, models.Record) error { return s.err }
func (s brokenStore) Remove(context.Context, string) error        { return s.err }

func newMemoryStore() services.RecordStore {
	return services.NewBlobRecordStore(services.NewMemoryKeyValue(), "@cadastro:records", logging.Logger)
}

// setupTestRouter wires both handler sets over store the way main does
func setupTestRouter(t *testing.T, store services.RecordStore) (*gin.Engine, *services.FormController) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	form := services.NewRegistrationForm(store, logging.Logger)
	require.NoError(t, form.Mount(context.Background()))

	dashboard := NewDashboardHandlers(logging.Logger, form)
	api := NewRecordHandlers(logging.Logger, form, store, "memory")

	router := gin.New()
	router.SetHTMLTemplate(Templates())
	router.GET("/", dashboard.Show)
	router.POST("/records", dashboard.Submit)
	router.POST("/records/:id/delete", dashboard.Delete)

	v1 := router.Group("/v1")
	v1.GET("/health", api.HealthCheck)
	v1.GET("/records", api.ListRecords)
	v1.POST("/records", api.CreateRecord)
	v1.DELETE("/records/:id", api.DeleteRecord)

	return router, form
}

func validFormValues() map[string]string {
	return map[string]string{
		models.FieldName:    "João Silva",
		models.FieldBirth:   "01/01/1990",
		models.FieldCPF:     "529.982.247-25",
		models.FieldPhone:   "(21) 98765-4321",
		models.FieldEmail:   "joao@example.com",
		models.FieldAddress: "Rua A, 1",
		models.FieldObs:     "",
	}
}
