package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	"github.com/yanqian/papersearch/internal/domain/markingscheme"
	"github.com/yanqian/papersearch/internal/domain/questionsearch"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

const pageHeader = "X-PDF-Page"

// Catalog lists and streams corpus documents.
type Catalog interface {
	Listing(ctx context.Context, includeDeferred bool) ([]corpus.PaperListing, error)
	Open(ctx context.Context, doc corpus.Document) (corpus.Object, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	searchSvc       questionsearch.Service
	locatorSvc      markingscheme.Service
	catalog         Catalog
	includeDeferred bool
	logger          *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(searchSvc questionsearch.Service, locatorSvc markingscheme.Service, catalog Catalog, includeDeferred bool, logger *slog.Logger) *Handler {
	return &Handler{
		searchSvc:       searchSvc,
		locatorSvc:      locatorSvc,
		catalog:         catalog,
		includeDeferred: includeDeferred,
		logger:          logger.With("component", "http.handler"),
	}
}

// Status reports the index lifecycle.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.searchSvc.Status())
}

// Papers lists available years and papers, newest first.
func (h *Handler) Papers(c *gin.Context) {
	includeDeferred := h.includeDeferred || queryBool(c, "deferred")
	listing, err := h.catalog.Listing(c.Request.Context(), includeDeferred)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": listing})
}

// Search ranks questions against a free-text query.
func (h *Handler) Search(c *gin.Context) {
	var req questionsearch.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.searchSvc.Query(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaperPDF streams an exam paper, optionally hinting the page to open.
func (h *Handler) PaperPDF(c *gin.Context) {
	year, ok := pathInt(c, "year")
	if !ok {
		return
	}
	paper, ok := pathInt(c, "paper")
	if !ok {
		return
	}
	doc := corpus.Document{Year: year, Kind: corpus.KindPaper, Paper: paper, Deferred: queryBool(c, "deferred")}
	h.servePDF(c, doc)
}

// MarkingSchemePDF streams a marking scheme, optionally hinting the page to open.
func (h *Handler) MarkingSchemePDF(c *gin.Context) {
	year, ok := pathInt(c, "year")
	if !ok {
		return
	}
	doc := corpus.Document{Year: year, Kind: corpus.KindMarkingScheme, Deferred: queryBool(c, "deferred")}
	h.servePDF(c, doc)
}

// Locate finds the marking scheme page for one question.
func (h *Handler) Locate(c *gin.Context) {
	year, ok := pathInt(c, "year")
	if !ok {
		return
	}
	number, ok := pathInt(c, "number")
	if !ok {
		return
	}
	res, err := h.locatorSvc.Locate(c.Request.Context(), markingscheme.Request{
		Year:           year,
		Deferred:       queryBool(c, "deferred"),
		QuestionNumber: number,
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

type rebuildRequest struct {
	Reason string `json:"reason"`
}

// Rebuild enqueues an index rebuild.
func (h *Handler) Rebuild(c *gin.Context) {
	var req rebuildRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
	}
	ticket, err := h.searchSvc.RequestRebuild(c.Request.Context(), req.Reason)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.logger.Info("rebuild requested", "subject", adminSubject(c), "job_id", ticket.JobID)
	c.JSON(http.StatusAccepted, ticket)
}

func (h *Handler) servePDF(c *gin.Context, doc corpus.Document) {
	page := 0
	if raw := c.Param("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "page must be a positive integer", err))
			return
		}
		page = parsed
	}

	obj, err := h.catalog.Open(c.Request.Context(), doc)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	defer obj.Body.Close()

	extra := map[string]string{
		"Content-Disposition": `inline; filename="` + doc.Filename() + `"`,
	}
	if page > 0 {
		extra[pageHeader] = strconv.Itoa(page)
	}
	c.DataFromReader(http.StatusOK, obj.Size, "application/pdf", obj.Body, extra)
}

func pathInt(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, name+" must be an integer", err))
		return 0, false
	}
	return value, true
}

func queryBool(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || strings.EqualFold(v, "true")
}
