package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/albertaspends/grants-dashboard/internal/engine"
	"github.com/albertaspends/grants-dashboard/internal/export"
	"github.com/albertaspends/grants-dashboard/internal/models"
	"github.com/albertaspends/grants-dashboard/internal/review"
	"github.com/albertaspends/grants-dashboard/internal/store"
	"github.com/albertaspends/grants-dashboard/internal/upstream"
)

type Server struct {
	Store    *store.Store
	Tracker  *review.Tracker
	Criteria *engine.CriteriaRegistry
	Upstream *upstream.Client
	Echo     *echo.Echo

	validate *validator.Validate
}

func NewServer(st *store.Store, criteria *engine.CriteriaRegistry, up *upstream.Client, corsOrigins []string) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow the configured frontend origins, defaulting to localhost
	// for development.
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s := &Server{
		Store:    st,
		Tracker:  review.NewTracker(),
		Criteria: criteria,
		Upstream: up,
		Echo:     e,
		validate: validator.New(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api")
	api.POST("/grants/elements", s.handleElements)
	api.POST("/grants", s.handleGrants)
	api.POST("/grants/ministries", s.handleMinistryBreakdown)
	api.POST("/grants/programs", s.handleProgramBreakdown)
	api.POST("/grants/top", s.handleTopRecipients)
	api.POST("/grants/trends", s.handleTrends)
	api.GET("/grants/data-quality", s.handleDataQuality)
	api.GET("/grants/export", s.handleExportGrants)
	api.PATCH("/grants/:id/flag", s.handleFlagGrant)
	api.POST("/refresh", s.handleRefresh)

	api.GET("/review", s.handleListReview)
	api.POST("/review", s.handleAddReview)
	api.DELETE("/review/:id", s.handleRemoveReview)
	api.GET("/review/export", s.handleExportReview)

	api.GET("/criteria", s.handleListCriteria)
	api.PATCH("/criteria/:id", s.handleToggleCriterion)
}

// filterRequest is the filter body the grant endpoints accept. Sentinel
// values ("ALL MINISTRIES", "ALL YEARS") and empty strings both mean no
// restriction on that dimension.
type filterRequest struct {
	Ministry           string  `json:"ministry"`
	FiscalYear         string  `json:"fiscalYear"`
	Search             string  `json:"search"`
	MinAmount          float64 `json:"minAmount" validate:"gte=0"`
	MaxAmount          float64 `json:"maxAmount" validate:"gte=0"`
	SortBy             string  `json:"sortBy" validate:"omitempty,oneof=amount fiscalYear ministry program recipient"`
	SortDir            string  `json:"sortDir" validate:"omitempty,oneof=asc desc"`
	View               string  `json:"view" validate:"omitempty,oneof=amount programCount"`
	ExcludeOperational bool    `json:"excludeOperational"`
	Limit              int     `json:"limit" validate:"gte=0,lte=500"`
}

func (s *Server) bindFilter(c echo.Context, req *filterRequest) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	return nil
}

func (f filterRequest) filter() engine.Filter {
	return engine.Filter{
		Ministry:   f.Ministry,
		FiscalYear: f.FiscalYear,
		Search:     f.Search,
		MinAmount:  f.MinAmount,
		MaxAmount:  f.MaxAmount,
	}
}

// projected returns the current grant snapshot with flag state overlaid
// from the tracker, which is the sole source of truth for flags.
func (s *Server) projected() []models.Grant {
	return s.Tracker.Project(s.Store.Grants())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleElements(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Store.Elements())
}

func (s *Server) handleGrants(c echo.Context) error {
	var req filterRequest
	if err := s.bindFilter(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	grants := engine.ApplyFilters(s.projected(), req.filter())
	if req.SortBy != "" {
		dir := req.SortDir
		if dir == "" {
			dir = engine.Descending
		}
		grants = engine.SortGrants(grants, req.SortBy, dir)
	}

	metrics := engine.KeyMetrics(grants)
	total := len(grants)
	if req.Limit > 0 && req.Limit < len(grants) {
		grants = grants[:req.Limit]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"grants":     grants,
		"total":      total,
		"keyMetrics": metrics,
	})
}

func (s *Server) handleMinistryBreakdown(c echo.Context) error {
	var req filterRequest
	if err := s.bindFilter(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	grants := s.projected()
	totals := engine.MinistryTotals(grants, req.FiscalYear)
	if len(totals) == 0 {
		// Thin per-year data falls back to the reference totals scaled
		// by that year's share of overall spending.
		totals = engine.ScaleToYear(s.Store.ReferenceMinistryTotals(), s.Store.ReferenceYearlyTotals(), req.FiscalYear)
	}
	totals = engine.ConsolidateSmallCategories(totals, engine.DefaultConsolidationThreshold)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ministryTotals": totals,
		"yearlyTotals":   engine.YearlyTotals(grants),
	})
}

func (s *Server) handleProgramBreakdown(c echo.Context) error {
	var req filterRequest
	if err := s.bindFilter(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.Ministry == "" || req.Ministry == models.AllMinistries {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ministry is required"})
	}

	var refTotal float64
	for _, mt := range s.Store.ReferenceMinistryTotals() {
		if mt.Ministry == req.Ministry {
			refTotal = mt.Total
			break
		}
	}

	slices := engine.ProgramBreakdown(
		s.projected(),
		s.Store.ProgramCatalog(req.Ministry),
		refTotal,
		s.Store.ReferenceYearlyTotals(),
		req.Ministry,
		req.FiscalYear,
	)
	return c.JSON(http.StatusOK, slices)
}

func (s *Server) handleTopRecipients(c echo.Context) error {
	var req filterRequest
	if err := s.bindFilter(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	grants := engine.ApplyFilters(s.projected(), req.filter())
	ctx := engine.NewClassifierContext(grants, s.Criteria.Toggles())

	// The programCount view ranks organizations drawing from more than
	// two programs instead of by total amount.
	if req.View == "programCount" {
		multi := engine.MultiProgramRecipients(grants, ctx)
		if limit > 0 && len(multi) > limit {
			multi = multi[:limit]
		}
		return c.JSON(http.StatusOK, multi)
	}

	top := engine.TopRecipients(grants, ctx, req.ExcludeOperational, limit)
	return c.JSON(http.StatusOK, top)
}

func (s *Server) handleTrends(c echo.Context) error {
	var req filterRequest
	if err := s.bindFilter(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, engine.Trends(s.projected(), req.filter()))
}

func (s *Server) handleDataQuality(c echo.Context) error {
	return c.JSON(http.StatusOK, engine.DataQuality(s.Store.Grants()))
}

func (s *Server) handleExportGrants(c echo.Context) error {
	grants := s.projected()
	prefix := "grants_export"
	if c.QueryParam("flagged") == "true" {
		flagged := make([]models.Grant, 0, len(grants))
		for _, g := range grants {
			if g.Flagged {
				flagged = append(flagged, g)
			}
		}
		grants = flagged
		prefix = "flagged_grants"
	}

	name := export.Filename(prefix, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(export.GrantsCSV(grants)))
}

type flagRequest struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

func (s *Server) handleFlagGrant(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.Store.Get(id); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}

	var req flagRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	s.Tracker.SetGrantFlag(id, req.Flagged, req.Reason)
	g, _ := s.Store.Get(id)
	projected := s.Tracker.Project([]models.Grant{g})
	return c.JSON(http.StatusOK, projected[0])
}

// handleRefresh replaces the bundled dataset with a fresh pull from the
// upstream service. On any failure the bundled data stays in place.
func (s *Server) handleRefresh(c echo.Context) error {
	if s.Upstream == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No upstream configured"})
	}

	grants, err := s.Upstream.FetchGrants(c.Request().Context(), upstream.FilterBody{})
	if err != nil {
		log.Printf("upstream fetch failed, keeping bundled dataset: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Upstream unavailable, serving bundled data"})
	}

	s.Store.Replace(grants)

	// The option lists ride along with a refresh; a failure here keeps
	// the bundled lists and does not fail the refresh.
	if el, err := s.Upstream.FetchElements(c.Request().Context()); err != nil {
		log.Printf("upstream elements fetch failed, keeping bundled option lists: %v", err)
	} else {
		s.Store.MergeElements(el)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Dataset refreshed",
		"count":   len(grants),
	})
}

func (s *Server) handleListReview(c echo.Context) error {
	f := review.ItemFilter{
		Search: c.QueryParam("search"),
		Type:   c.QueryParam("type"),
		Reason: c.QueryParam("reason"),
	}
	items := s.Tracker.FilteredItems(f)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":   items,
		"reasons": s.Tracker.UniqueReasons(),
		"summary": s.Tracker.Summarize(s.projected()),
	})
}

type reviewRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=program recipient"`
	Ministry    string   `json:"ministry"`
	TotalAmount float64  `json:"totalAmount" validate:"gte=0"`
	FlagReason  []string `json:"flagReason"`
}

func (s *Server) handleAddReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	stored, added := s.Tracker.Add(models.ReviewItem{
		ID:          req.ID,
		Name:        req.Name,
		Type:        req.Type,
		Ministry:    req.Ministry,
		TotalAmount: req.TotalAmount,
		FlagReason:  req.FlagReason,
	})
	if !added {
		// Duplicate insert is a silent no-op; report the existing item.
		return c.JSON(http.StatusOK, stored)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (s *Server) handleRemoveReview(c echo.Context) error {
	s.Tracker.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExportReview(c echo.Context) error {
	name := export.Filename("flagged_grants", time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(export.ReviewCSV(s.Tracker.Items())))
}

func (s *Server) handleListCriteria(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Criteria.All())
}

type criterionRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleToggleCriterion(c echo.Context) error {
	var req criterionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if !s.Criteria.SetEnabled(c.Param("id"), req.Enabled) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown criterion"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      c.Param("id"),
		"enabled": req.Enabled,
	})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
