package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alumnet/modguard/internal/ai/classifier"
	"github.com/alumnet/modguard/internal/moderation"
	"github.com/alumnet/modguard/internal/moderation/types"
	restTypes "github.com/alumnet/modguard/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// maxContentsPerRequest bounds batch classification requests.
const maxContentsPerRequest = 50

// Validation errors returned to clients as 400 responses.
var (
	// ErrMissingUserID is returned when a submission has no author.
	ErrMissingUserID = errors.New("userId is required")
	// ErrInvalidContentType is returned for content types other than post and comment.
	ErrInvalidContentType = errors.New("contentType must be post or comment")
	// ErrMissingContent is returned when a classify request carries no text.
	ErrMissingContent = errors.New("content or contents is required")
	// ErrTooManyContents is returned when a batch exceeds maxContentsPerRequest.
	ErrTooManyContents = errors.New("too many contents in one request")
)

// ModerationHandler handles content submission endpoints.
type ModerationHandler struct {
	engine     *moderation.Engine
	classifier *classifier.Classifier
	logger     *zap.Logger
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(engine *moderation.Engine, cls *classifier.Classifier, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		engine:     engine,
		classifier: cls,
		logger:     logger,
	}
}

// Moderate scans submitted content, recording an alert and a warning when flagged.
func (h *ModerationHandler) Moderate(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.ModerateRequest
	if err := decodeBody(req.Request, &body); err != nil {
		return badRequest(w, h.logger, err)
	}

	if strings.TrimSpace(body.UserID) == "" {
		return badRequest(w, h.logger, ErrMissingUserID)
	}

	if !body.ContentType.IsValid() {
		return badRequest(w, h.logger, ErrInvalidContentType)
	}

	decision := h.engine.ModerateAndRecord(req.Context(), types.Submission{
		Content:     body.Content,
		UserID:      body.UserID,
		UserName:    body.UserName,
		ContentType: body.ContentType,
		ContentID:   body.ContentID,
	})

	return writeJSON(w, http.StatusOK, decision)
}

// Classify returns the advisory classifier's assessment. It never fails because of
// the classifier itself.
func (h *ModerationHandler) Classify(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.ClassifyRequest
	if err := decodeBody(req.Request, &body); err != nil {
		return badRequest(w, h.logger, err)
	}

	if len(body.Contents) > 0 {
		if len(body.Contents) > maxContentsPerRequest {
			return badRequest(w, h.logger, ErrTooManyContents)
		}

		assessments := h.classifier.ClassifyMany(req.Context(), body.Contents)

		results := make([]restTypes.ClassifyResult, len(assessments))
		for i, assessment := range assessments {
			results[i] = restTypes.ClassifyResult{
				Assessment: assessment,
				Outcome:    assessment.Decision(),
			}
		}

		return writeJSON(w, http.StatusOK, restTypes.ClassifyBatchResponse{Results: results})
	}

	if strings.TrimSpace(body.Content) == "" {
		return badRequest(w, h.logger, ErrMissingContent)
	}

	assessment := h.classifier.Classify(req.Context(), body.Content)

	return writeJSON(w, http.StatusOK, restTypes.ClassifyResult{
		Assessment: assessment,
		Outcome:    assessment.Decision(),
	})
}
