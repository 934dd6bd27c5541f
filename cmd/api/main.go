package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prefeitura-rio/app-cadastro/internal/config"
	"github.com/prefeitura-rio/app-cadastro/internal/handlers"
	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/middleware"
	"github.com/prefeitura-rio/app-cadastro/internal/observability"
	"github.com/prefeitura-rio/app-cadastro/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/prefeitura-rio/app-cadastro/docs"
)

// @title           Cadastro API
// @version         1.0
// @description     API do formulário de cadastro pessoal. Valida nome, data de nascimento, CPF, celular, e-mail, endereço e observações e mantém a lista de cadastros.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /v1

// @tag.name records
// @tag.description Operations about registration records

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logging.Logger.Sync() }()

	// Values from a local .env never override the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Logger.Warn("failed to read .env file", zap.Error(err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	store, err := newRecordStore()
	if err != nil {
		logging.Logger.Fatal("failed to initialize record store",
			zap.String("backend", config.AppConfig.StoreBackend),
			zap.Error(err))
	}

	form := services.NewRegistrationForm(store, logging.Logger)
	if err := form.Mount(context.Background()); err != nil {
		logging.Logger.Fatal("failed to load records", zap.Error(err))
	}

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestTiming(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
	)
	router.SetHTMLTemplate(handlers.Templates())

	dashboard := handlers.NewDashboardHandlers(logging.Logger, form)
	api := handlers.NewRecordHandlers(logging.Logger, form, store, config.AppConfig.StoreBackend)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// HTML form and table
	router.GET("/", dashboard.Show)
	router.POST("/records", dashboard.Submit)
	router.POST("/records/:id/delete", dashboard.Delete)

	// API v1 routes
	v1 := router.Group("/v1", cors.Default())
	{
		v1.GET("/health", api.HealthCheck)
		v1.GET("/records", api.ListRecords)
		v1.POST("/records", api.CreateRecord)
		v1.DELETE("/records/:id", api.DeleteRecord)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
			zap.String("store_backend", config.AppConfig.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	if config.MongoDB != nil {
		if err := config.MongoDB.Client().Disconnect(ctx); err != nil {
			logging.Logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	logging.Logger.Info("server exited gracefully")
}

// newRecordStore connects the configured backend
func newRecordStore() (services.RecordStore, error) {
	cfg := config.AppConfig
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		if err := config.InitRedis(); err != nil {
			return nil, err
		}
		return services.NewBlobRecordStore(services.NewRedisKeyValue(config.Redis), cfg.StorageKey, logging.Logger), nil
	case config.StoreBackendMongo:
		if err := config.InitMongoDB(); err != nil {
			return nil, err
		}
		collection := config.MongoDB.Collection(cfg.RecordCollection)
		return services.NewMongoRecordStore(collection, logging.Logger), nil
	default:
		return services.NewBlobRecordStore(services.NewMemoryKeyValue(), cfg.StorageKey, logging.Logger), nil
	}
}
