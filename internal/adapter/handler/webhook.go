package handler

import (
	stdErrors "errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/telaila/companion/errors"
	"github.com/telaila/companion/internal/domain/entities"
	conversationUsecase "github.com/telaila/companion/internal/usecase/conversation"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
)

// SignatureHeader carries the HMAC of a voice platform webhook
const SignatureHeader = "ElevenLabs-Signature"

const maxWebhookBody = 10 << 20

// Webhook receives post-call events from the voice platform
type Webhook struct {
	service conversationUsecase.Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service conversationUsecase.Service, logger *zap.Logger) *Webhook {
	return &Webhook{service: service, logger: logger}
}

// ConversationEnded handles POST /v1/webhooks/elevenlabs/conversation-ended.
// Duplicates and ignored events still answer 200 so the platform stops
// retrying.
// @Summary      Conversation ended webhook
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        ElevenLabs-Signature  header    string  false  "t=<unix>,v0=<hex hmac>"
// @Success      200                   {object}  conversation.Result
// @Failure      400                   {object}  map[string]interface{}
// @Failure      401                   {object}  map[string]interface{}
// @Failure      404                   {object}  map[string]interface{}
// @Router       /v1/webhooks/elevenlabs/conversation-ended [post]
func (h *Webhook) ConversationEnded(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	signature := c.Request().Header.Get(SignatureHeader)
	result, err := h.service.HandleConversationEnded(c.Request().Context(), body, signature)
	if err != nil {
		if stdErrors.Is(err, entities.ErrAgentNotLinked) {
			e := errors.ErrUnknownAgent("")
			e.Raw = err
			return HandleError(h.logger, c, e)
		}
		if stdErrors.Is(err, usecaseErrors.ErrInvalidInput) {
			e := errors.ErrInvalidPayload()
			e.Raw = err
			return HandleError(h.logger, c, e)
		}
		return HandleError(h.logger, c, err)
	}

	if h.logger != nil {
		h.logger.Info("📞 Webhook handled",
			zap.String("status", result.Status),
			zap.String("conversation_id", result.ConversationID),
		)
	}
	return c.JSON(http.StatusOK, result)
}
