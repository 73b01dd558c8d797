package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/telaila/companion/errors"
	testerDTO "github.com/telaila/companion/internal/adapter/dto/tester"
	"github.com/telaila/companion/internal/adapter/presenter"
	testerUsecase "github.com/telaila/companion/internal/usecase/tester"
)

// Tester handles beta tester registration and knowledge base requests
type Tester struct {
	service *testerUsecase.Service
	logger  *zap.Logger
}

// NewTesterHandler creates a new tester handler
func NewTesterHandler(service *testerUsecase.Service, logger *zap.Logger) *Tester {
	return &Tester{service: service, logger: logger}
}

// Register handles POST /v1/testers
// @Summary      Register a beta tester
// @Tags         Testers
// @Accept       json
// @Produce      json
// @Param        request  body      tester.RegisterRequest  true  "Signup form"
// @Success      201      {object}  tester.RegisterResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      409      {object}  map[string]interface{}
// @Router       /v1/testers [post]
func (h *Tester) Register(c echo.Context) error {
	var req testerDTO.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	var signup map[string]interface{}
	if raw, err := json.Marshal(req); err == nil {
		_ = json.Unmarshal(raw, &signup)
	}

	t, err := h.service.Register(c.Request().Context(), testerUsecase.RegisterInput{
		FamilyName:      req.FamilyName,
		FamilyEmail:     req.FamilyEmail,
		FamilyPhone:     req.FamilyPhone,
		ElderName:       req.ElderName,
		ElderAge:        req.ElderAge,
		Relationship:    req.Relationship,
		PrimaryLanguage: req.PrimaryLanguage,
		SpecialNotes:    req.SpecialNotes,
		SignupData:      signup,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToRegisterResponse(t))
}

// List handles GET /v1/testers
// @Summary      List beta testers
// @Tags         Testers
// @Produce      json
// @Success      200  {object}  tester.ListResponse
// @Router       /v1/testers [get]
func (h *Tester) List(c echo.Context) error {
	testers, err := h.service.List(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTesterListResponse(testers))
}

// Get handles GET /v1/testers/:id
// @Summary      Get a beta tester
// @Tags         Testers
// @Produce      json
// @Param        id   path      string  true  "Beta ID, e.g. BT001"
// @Success      200  {object}  tester.TesterResponse
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/testers/{id} [get]
func (h *Tester) Get(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	t, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTesterResponse(t))
}

// LinkAgent handles POST /v1/testers/:id/agent
// @Summary      Link a conversational agent
// @Tags         Testers
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Beta ID"
// @Param        request  body      tester.LinkAgentRequest  true  "Agent"
// @Success      200      {object}  tester.TesterResponse
// @Failure      404      {object}  map[string]interface{}
// @Failure      409      {object}  map[string]interface{}
// @Router       /v1/testers/{id}/agent [post]
func (h *Tester) LinkAgent(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req testerDTO.LinkAgentRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	t, err := h.service.LinkAgent(c.Request().Context(), id, req.AgentID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTesterResponse(t))
}

// KnowledgeBase handles GET /v1/testers/:id/knowledge-base
// @Summary      Get the conversation memory document
// @Tags         Knowledge Base
// @Produce      json
// @Param        id   path      string  true  "Beta ID"
// @Success      200  {object}  tester.KnowledgeBaseResponse
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/testers/{id}/knowledge-base [get]
func (h *Tester) KnowledgeBase(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	ctx := c.Request().Context()

	t, err := h.service.Get(ctx, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	kb, err := h.service.KnowledgeBase(ctx, t)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToKnowledgeBaseResponse(t, kb))
}

// KnowledgeBaseByAgent handles GET /v1/agents/:agent_id/knowledge-base. The
// voice agent calls it before a conversation starts.
// @Summary      Get the memory document by agent
// @Tags         Knowledge Base
// @Produce      json
// @Param        agent_id  path      string  true  "Agent ID"
// @Success      200       {object}  tester.KnowledgeBaseResponse
// @Failure      404       {object}  map[string]interface{}
// @Router       /v1/agents/{agent_id}/knowledge-base [get]
func (h *Tester) KnowledgeBaseByAgent(c echo.Context) error {
	ctx := c.Request().Context()

	t, err := h.service.FindByAgent(ctx, c.Param("agent_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	kb, err := h.service.KnowledgeBase(ctx, t)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToKnowledgeBaseResponse(t, kb))
}

// testerID binds and validates the :id path parameter
func testerID(c echo.Context) (string, error) {
	param := testerDTO.TesterPathParam{ID: c.Param("id")}
	if err := c.Validate(&param); err != nil {
		return "", errors.ErrInvalidArgument("tester id must look like BT001").WithDetail("tester_id", param.ID)
	}
	return param.ID, nil
}
