package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/middlewares"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/payments"
	"github.com/despasys/despasys_backend/utils"
	"github.com/despasys/despasys_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("despasys-backend/handlers")

// Handler serves both the web (/api) and mobile (/api/mobile) surfaces.
type Handler struct {
	processes   ProcessService
	directory   Directory
	charger     InvoiceCharger
	recommender Recommender
	notifier    *workflow.EventNotifier
	logger      *logrus.Logger
	now         func() time.Time
}

type Options struct {
	Processes   ProcessService
	Directory   Directory
	Charger     InvoiceCharger
	Recommender Recommender
	Notifier    *workflow.EventNotifier
	Logger      *logrus.Logger
	Now         func() time.Time
}

func New(opts Options) *Handler {
	h := &Handler{
		processes:   opts.Processes,
		directory:   opts.Directory,
		charger:     opts.Charger,
		recommender: opts.Recommender,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if h.processes == nil {
		h.processes = ModelProcesses{}
	}
	if h.directory == nil {
		h.directory = LoaderDirectory{}
	}
	if h.logger == nil {
		h.logger = config.GetLogger()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// withAuth hands the resolved identity to fn, or answers 401 before anything is read.
func withAuth(fn func(c *gin.Context, auth appctx.Auth)) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := middlewares.AuthFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		fn(c, auth)
	}
}

// respondError maps repository errors to status codes. Unknown errors are logged and hidden.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrUnauthorized), errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrForbidden), errors.Is(err, models.ErrUserDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrConflict), errors.Is(err, workflow.ErrIdempotencyInProgress), errors.Is(err, payments.ErrInvoiceAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, payments.ErrGatewayFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
	case errors.Is(err, models.ErrSessionStoreDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		span := trace.SpanFromContext(c.Request.Context())
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		_ = c.Error(err)
		config.LogError(h.logger, "Handlers", c.FullPath(), "request failed", correlationId(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func correlationId(c *gin.Context) string {
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	return cid
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		body := gin.H{"error": "invalid request body"}
		var ve *utils.ValidationError
		if errors.As(utils.FirstValidationError(err), &ve) && ve.Field != "" {
			body = gin.H{"error": ve.Message, "field": ve.Field, "details": utils.ProcessValidationErrors(err)}
		}
		c.JSON(http.StatusBadRequest, body)
		return false
	}
	return true
}

func listResponse[T any](c *gin.Context, items []T, info models.PageInfo) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": info})
}
