package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"visaverse/internal/apperror"
	"visaverse/internal/auth"
	"visaverse/internal/metrics"
	"visaverse/internal/models"
	"visaverse/internal/service/document"
	"visaverse/internal/service/gemini"
)

const (
	serviceName    = "VisaVerse Backend API"
	serviceVersion = "1.0.0"
	// multipart framing allowance on top of the file limit
	formOverhead = 1 << 20

	guidanceFailed = "Failed to generate visa guidance. Please try again later."
	analysisFailed = "Failed to analyze document. Please try again later."
)

// GuidanceService is implemented by gemini.Client.
type GuidanceService interface {
	GetVisaGuidance(ctx context.Context, req models.GuidanceRequest) (*models.GuidanceResult, error)
}

// DocumentProcessor is implemented by document.Pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, u *document.Upload) (*models.AnalysisResult, error)
}

// UploadStager is implemented by document.Stager.
type UploadStager interface {
	Stage(fh *multipart.FileHeader) (*document.Upload, error)
}

// AccountService is implemented by account.Service.
type AccountService interface {
	RegisterUser(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Dependencies groups what the handler needs; Gatherer and Recorder are optional.
type Dependencies struct {
	Guidance    GuidanceService
	Documents   DocumentProcessor
	Stager      UploadStager
	Accounts    AccountService
	Auth        *auth.Service
	Logger      *logrus.Logger
	Recorder    metrics.HTTPRecorder
	Gatherer    prometheus.Gatherer
	FrontendURL string
}

// Handler wires HTTP routes to the guidance, document and account services.
type Handler struct {
	guidance    GuidanceService
	documents   DocumentProcessor
	stager      UploadStager
	accounts    AccountService
	auth        *auth.Service
	logger      *logrus.Logger
	recorder    metrics.HTTPRecorder
	gatherer    prometheus.Gatherer
	frontendURL string
	now         func() time.Time
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var recorder metrics.HTTPRecorder = metrics.Nop{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}
	return &Handler{
		guidance:    deps.Guidance,
		documents:   deps.Documents,
		stager:      deps.Stager,
		accounts:    deps.Accounts,
		auth:        deps.Auth,
		logger:      logger,
		recorder:    recorder,
		gatherer:    deps.Gatherer,
		frontendURL: deps.FrontendURL,
		now:         time.Now,
	}
}

// RegisterRoutes attaches middleware and all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(
		requestID(),
		requestLogger(h.logger, h.recorder),
		recovery(h.logger),
		cors(h.frontendURL),
	)

	router.GET("/", h.index)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(h.gatherer)))
	}

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.POST("/visa-guidance", h.visaGuidance)
	api.POST("/document-analyze", h.documentAnalyze)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.registerUser)
	authRoutes.POST("/login", h.loginUser)
	authMW := h.auth.Middleware()
	authRoutes.GET("/me", authMW, h.currentUser)
	authRoutes.POST("/logout", authMW, h.auth.CSRFMiddleware(), h.logoutUser)
}

func (h *Handler) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": serviceName,
		"version": serviceVersion,
		"endpoints": gin.H{
			"health":          "GET /api/health",
			"visaGuidance":    "POST /api/visa-guidance",
			"documentAnalyze": "POST /api/document-analyze",
		},
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(gemini.TimestampLayout),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

func (h *Handler) visaGuidance(c *gin.Context) {
	var req models.GuidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// an unreadable body reads as missing fields
		req = models.GuidanceRequest{}
	}
	if err := req.Validate(); err != nil {
		h.writeError(c, err, guidanceFailed)
		return
	}
	result, err := h.guidance.GetVisaGuidance(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, guidanceFailed)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) documentAnalyze(c *gin.Context) {
	tooLarge := apperror.Validation(apperror.CodeFileTooLarge, document.MsgFileTooLarge)
	limit := int64(document.MaxUploadBytes + formOverhead)
	if c.Request.ContentLength > limit {
		h.writeError(c, tooLarge, analysisFailed)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("document")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, tooLarge, analysisFailed)
			return
		}
		h.writeError(c, apperror.Validation(apperror.CodeNoFileProvided, document.MsgNoFile), analysisFailed)
		return
	}

	upload, err := h.stager.Stage(fh)
	if err != nil {
		h.writeError(c, err, analysisFailed)
		return
	}
	result, err := h.documents.Process(c.Request.Context(), upload)
	if err != nil {
		h.writeError(c, err, analysisFailed)
		return
	}
	c.JSON(http.StatusOK, result)
}
