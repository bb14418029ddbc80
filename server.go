package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"bitbucket.org/mmdatafocus/mallops_backend/models/reports"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
	"bitbucket.org/mmdatafocus/mallops_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

const (
	defaultPeriodDays = 30
	minPeriodDays     = 7
	maxPeriodDays     = 365
)

var tracer = otel.Tracer("mallops-backend")

// pushEnvelope is the Pub/Sub-style push wrapper POS providers deliver
// sales batches in.
type pushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// resolvePeriodDays parses the period query param: default 30, clamped to
// [7, 365]. Out-of-range values clamp rather than error so old dashboard
// links keep working.
func resolvePeriodDays(raw string) int {
	if strings.TrimSpace(raw) == "" {
		return defaultPeriodDays
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultPeriodDays
	}
	if n < minPeriodDays {
		return minPeriodDays
	}
	if n > maxPeriodDays {
		return maxPeriodDays
	}
	return n
}

func revenueIntelligenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyId := strings.TrimSpace(c.Query("propertyId"))
		periodDays := resolvePeriodDays(c.Query("period"))

		ctx, span := tracer.Start(c.Request.Context(), "revenue_intelligence")
		defer span.End()

		if propertyId != "" {
			if _, err := models.GetPropertyById(ctx, propertyId); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
				return
			}
			ctx = utils.SetPropertyIdInContext(ctx, propertyId)
		}

		// The report window is anchored to the wall clock here, at the edge;
		// everything below takes the date as a parameter.
		response, err := reports.GetRevenueIntelligence(ctx, propertyId, periodDays, time.Now())
		if err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "server.go", "revenueIntelligenceHandler", "GetRevenueIntelligence", propertyId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute revenue intelligence"})
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

func revenueIntelligenceExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyId := strings.TrimSpace(c.Query("propertyId"))
		periodDays := resolvePeriodDays(c.Query("period"))

		ctx := c.Request.Context()
		response, err := reports.GetRevenueIntelligence(ctx, propertyId, periodDays, time.Now())
		if err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "server.go", "revenueIntelligenceExportHandler", "GetRevenueIntelligence", propertyId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute revenue intelligence"})
			return
		}

		if err := reports.WriteRevenueIntelligenceExcel(c.Writer, response); err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "server.go", "revenueIntelligenceExportHandler", "WriteRevenueIntelligenceExcel", propertyId, err)
		}
	}
}

func createLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRevenueShareLease
		if err := c.ShouldBindJSON(&input); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		lease, err := models.CreateRevenueShareLease(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

func posSalesSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		// Redis lock is a best-effort optimization: it keeps concurrent
		// deliveries for the same lease from contending inside the DB
		// transaction. Correctness does not depend on it; the durable
		// idempotency key serializes the outcome either way.
		redisLock := config.GetRedisLock()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "posSalesSyncHandler", "io.ReadAll", nil, err)
			// Malformed request body: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		var envelope pushEnvelope
		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "server.go", "posSalesSyncHandler", "Unmarshal body", body, err)
			c.Status(http.StatusNoContent)
			return
		}

		var msg workflow.PosSalesSyncMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
			config.LogError(logger, "server.go", "posSalesSyncHandler", "Unmarshal sync message", envelope.Message.Data, err)
			c.Status(http.StatusNoContent)
			return
		}
		msg.MessageId = envelope.Message.ID

		// Correlation ID propagation: prefer payload correlation_id; fall
		// back to the push message ID.
		correlationID := msg.CorrelationId
		if correlationID == "" {
			correlationID = envelope.Message.ID
		}

		var lock *redislock.Lock
		if redisLock != nil {
			lock, err = redisLock.Obtain(c.Request.Context(), fmt.Sprintf("lock:lease:%s", msg.LeaseId), 30*time.Second, nil)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"field":      "posSalesSyncHandler",
					"lease_id":   msg.LeaseId,
					"message_id": envelope.Message.ID,
				}).Warn("could not obtain redis lock; proceeding without redis lock")
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field":      "posSalesSyncHandler",
					"lease_id":   msg.LeaseId,
					"message_id": envelope.Message.ID,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationID)
		if err := workflow.ProcessSalesSyncMessage(ctx, logger, msg); err != nil {
			if errors.Is(err, workflow.ErrPoisonSalesMessage) {
				// Retrying cannot fix the payload: ack/drop.
				config.LogError(logger, "server.go", "posSalesSyncHandler", "poison message", msg.LeaseId, err)
				c.Status(http.StatusNoContent)
				return
			}
			logger.WithFields(logrus.Fields{
				"field":          "posSalesSyncHandler",
				"lease_id":       msg.LeaseId,
				"message_id":     envelope.Message.ID,
				"correlation_id": correlationID,
			}).Error("sales sync processing failed: " + err.Error())
			// Non-2xx tells the pusher to retry (and potentially route to DLQ).
			c.Status(http.StatusInternalServerError)
			return
		}

		// Success: ack.
		c.Status(http.StatusNoContent)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	r.Use(gin.Recovery())
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/api/revenue-intelligence", revenueIntelligenceHandler())
	r.GET("/api/revenue-intelligence/export", revenueIntelligenceExportHandler())
	r.POST("/api/leases", createLeaseHandler())
	r.POST("/pos/sales-sync", posSalesSyncHandler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": port}).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	// Connect dependencies after the listener is up (Cloud Run startup).
	go config.ConnectDatabaseWithRetry()
	go config.ConnectRedisWithRetry()

	<-sigCtx.Done()
	logger.Info("shutdown signal received; draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete: " + err.Error())
	}
}
