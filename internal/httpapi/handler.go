package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"cpindex/internal/auth"
	"cpindex/internal/catalog"
	"cpindex/internal/form"
	"cpindex/internal/indexer"
	"cpindex/internal/query"
	"cpindex/internal/record"
)

const (
	actorKey = "actor"
	realm    = "cpindex"

	// Delete plans wait this long for confirmation.
	planTTL = 5 * time.Minute
)

type Handler struct {
	svc    *indexer.Service
	auth   auth.Authenticator
	logger indexer.Logger
	idgen  indexer.IDGenerator
	plans  *cache.Cache
	claim  sync.Mutex // guards taking a plan out of plans
}

// pendingPlan is a delete plan waiting for its creator to confirm it.
type pendingPlan struct {
	plan  *indexer.DeletePlan
	owner string
}

func NewHandler(svc *indexer.Service, authenticator auth.Authenticator, logger indexer.Logger, idgen indexer.IDGenerator) *Handler {
	if logger == nil {
		logger = indexer.NewNopLogger()
	}
	if idgen == nil {
		idgen = indexer.UUIDGenerator{}
	}
	return &Handler{
		svc:    svc,
		auth:   authenticator,
		logger: logger,
		idgen:  idgen,
		plans:  cache.New(planTTL, 2*planTTL),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm:     realm,
		Validator: h.validate,
	}))

	api.GET("/catalog", h.handleCatalog)
	api.GET("/books", h.handleBooks)
	api.GET("/records", h.handleSearch)
	api.POST("/records", h.handleCreate)
	api.GET("/records/:id", h.handleGet)
	api.PUT("/records/:id", h.handleUpdate)
	api.DELETE("/records/:id", h.handleDelete)
	api.GET("/export", h.handleExport)

	admin := api.Group("/admin")
	admin.POST("/backup", h.handleBackup)
	admin.POST("/rename-book", h.handleRenameBook)
	admin.POST("/delete-plan", h.handleDeletePlan)
	admin.POST("/delete-plan/confirm", h.handleConfirmDelete)
}

func (h *Handler) validate(email, password string, c echo.Context) (bool, error) {
	actor, err := h.auth.Authenticate(email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Warn("authentication failed", "email", email)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.Set(actorKey, actor)
	return true, nil
}

func actorOf(c echo.Context) indexer.Actor {
	a, _ := c.Get(actorKey).(indexer.Actor)
	return a
}

type fieldInfo struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`
}

type typeInfo struct {
	Name       string      `json:"name"`
	Fields     []fieldInfo `json:"fields"`
	Repeatable *fieldInfo  `json:"repeatable,omitempty"`
}

type catalogResponse struct {
	Types      []typeInfo `json:"types"`
	Categories []string   `json:"categories"`
}

func (h *Handler) handleCatalog(c echo.Context) error {
	var resp catalogResponse
	for _, t := range h.svc.Types() {
		info := typeInfo{Name: t.Name}
		for _, label := range catalog.FieldsFor(t.Name) {
			info.Fields = append(info.Fields, fieldInfo{Identifier: catalog.Normalize(label), Label: label})
		}
		if t.Repeatable != nil {
			info.Repeatable = &fieldInfo{Identifier: t.Repeatable.Identifier, Label: t.Repeatable.Label}
		}
		resp.Types = append(resp.Types, info)
	}
	for _, cat := range catalog.Categories() {
		resp.Categories = append(resp.Categories, cat.Name)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) handleBooks(c echo.Context) error {
	books, err := h.svc.Books(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if books == nil {
		books = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"books": books})
}

func (h *Handler) handleSearch(c echo.Context) error {
	params := c.QueryParams()
	crit := query.Criteria{
		Term:       c.QueryParam("q"),
		Books:      params["book"],
		Categories: params["category"],
		Page:       c.QueryParam("page"),
	}
	recs, err := h.svc.Search(c.Request().Context(), crit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": indexer.Summarize(recs, h.svc.Location())})
}

type recordRequest struct {
	Type    string            `json:"type"`
	Fields  map[string]string `json:"fields"`
	Parties []string          `json:"parties"`
}

type recordResponse struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Fields    map[string]string `json:"fields"`
	Parties   []string          `json:"parties,omitempty"`
	CreatedBy string            `json:"created_by"`
	UpdatedBy string            `json:"updated_by"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func (h *Handler) toResponse(r *record.Record) recordResponse {
	loc := h.svc.Location()
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		if k != catalog.FieldParties {
			fields[k] = v
		}
	}
	return recordResponse{
		ID:        r.ID,
		Type:      r.Type,
		Fields:    fields,
		Parties:   r.Parties(),
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: record.FormatTimestamp(r.CreatedAt, loc),
		UpdatedAt: record.FormatTimestamp(r.UpdatedAt, loc),
	}
}

// fill copies the request values into f. Keys may be labels or identifiers.
func fill(f *form.Form, req recordRequest) error {
	for k, v := range req.Fields {
		if err := f.Set(k, v); err != nil {
			return err
		}
	}
	if req.Parties != nil {
		return f.SetParties(req.Parties)
	}
	return nil
}

func (h *Handler) handleCreate(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("invalid request body"))
	}

	f := form.New(form.Presets{})
	if err := f.SelectType(req.Type); err != nil {
		return h.fail(c, err)
	}
	if err := fill(f, req); err != nil {
		return h.fail(c, err)
	}

	ctx := c.Request().Context()
	id, err := h.svc.SubmitForm(ctx, actorOf(c), f)
	if err != nil {
		return h.fail(c, err)
	}
	rec, err := h.svc.GetRecord(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, h.toResponse(rec))
}

func paramID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Sprintf("invalid record id %q", c.Param("id")))
	}
	return id, nil
}

func (h *Handler) handleGet(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *Handler) handleUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("invalid request body"))
	}

	ctx := c.Request().Context()
	f, err := h.svc.EditForm(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if req.Type != "" && req.Type != f.Type() {
		return h.fail(c, badRequest("record type cannot be changed"))
	}
	if err := fill(f, req); err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.SaveForm(ctx, actorOf(c), id, f); err != nil {
		return h.fail(c, err)
	}

	rec, err := h.svc.GetRecord(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.toResponse(rec))
}

func (h *Handler) handleDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), actorOf(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleExport(c echo.Context) error {
	format := c.QueryParam("format")
	r, err := h.svc.Renderer(format)
	if err != nil {
		return h.fail(c, err)
	}

	var buf bytes.Buffer
	n, err := h.svc.Export(c.Request().Context(), format, c.QueryParams()["book"], &buf)
	if err != nil {
		return h.fail(c, err)
	}
	if n == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "cpindex-"+format+r.Extension()))
	return c.Blob(http.StatusOK, r.ContentType(), buf.Bytes())
}

func (h *Handler) handleBackup(c echo.Context) error {
	key, err := h.svc.BackupToVault(c.Request().Context(), actorOf(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"key": key})
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) handleRenameBook(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil || req.From == "" || strings.TrimSpace(req.To) == "" {
		return h.fail(c, badRequest("from and to are required"))
	}
	n, err := h.svc.RenameBook(c.Request().Context(), actorOf(c), req.From, req.To)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"renamed": n})
}

type planRequest struct {
	IDs  string `json:"ids"`
	Book string `json:"book"`
}

type planResponse struct {
	Token    string            `json:"token"`
	Book     string            `json:"book,omitempty"`
	Records  []indexer.Summary `json:"records"`
	Warnings []string          `json:"warnings,omitempty"`
}

// handleDeletePlan resolves an id specification or a book into a pending
// plan and returns the token that confirms it.
func (h *Handler) handleDeletePlan(c echo.Context) error {
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("invalid request body"))
	}
	if (req.IDs == "") == (req.Book == "") {
		return h.fail(c, badRequest("exactly one of ids and book is required"))
	}

	ctx := c.Request().Context()
	actor := actorOf(c)
	var (
		plan *indexer.DeletePlan
		err  error
	)
	if req.Book != "" {
		plan, err = h.svc.PlanDeleteBook(ctx, actor, req.Book)
	} else {
		plan, err = h.svc.PlanDelete(ctx, req.IDs)
	}
	if err != nil {
		return h.fail(c, err)
	}

	token := h.idgen.New()
	h.plans.SetDefault(token, &pendingPlan{plan: plan, owner: actor.Email})

	return c.JSON(http.StatusCreated, planResponse{
		Token:    token,
		Book:     plan.Book,
		Records:  indexer.Summarize(plan.Records, h.svc.Location()),
		Warnings: plan.Warnings,
	})
}

type confirmRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleConfirmDelete(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return h.fail(c, badRequest("token is required"))
	}

	actor := actorOf(c)
	pending, err := h.takePlan(req.Token, actor)
	if err != nil {
		return h.fail(c, err)
	}

	if err := pending.plan.Confirm(); err != nil {
		return h.fail(c, err)
	}
	n, err := h.svc.ExecuteDelete(c.Request().Context(), actor, pending.plan)
	if err != nil {
		if pending.plan.State() != indexer.PlanDone {
			h.plans.SetDefault(req.Token, pending)
		}
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// takePlan removes the plan behind token so that only one request can
// execute it. Plans of other users stay in place.
func (h *Handler) takePlan(token string, actor indexer.Actor) (*pendingPlan, error) {
	h.claim.Lock()
	defer h.claim.Unlock()

	v, ok := h.plans.Get(token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown or expired delete plan")
	}
	pending := v.(*pendingPlan)
	if !strings.EqualFold(pending.owner, actor.Email) {
		return nil, fmt.Errorf("confirming another user's plan: %w", indexer.ErrForbidden)
	}
	h.plans.Delete(token)
	return pending, nil
}
