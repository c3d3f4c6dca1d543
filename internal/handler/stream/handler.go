package stream

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
	"github.com/dkarki/twinfolio/pkg/utils"
)

// chunkSize is how many runes each SSE frame carries.
const chunkSize = 24

// Handler streams a pipeline answer over Server-Sent Events. The answer is
// produced in full first so the fallback ladder and metadata stay intact,
// then delivered in chunks for a typing effect.
type Handler struct {
	pipeline *pipeline.Service
	identity action.HeaderIdentity
	logger   *zap.Logger
}

func New(pipelineSvc *pipeline.Service, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipelineSvc, logger: logger.Named("stream")}
}

// ServeHTTP handles GET /api/chat/stream?sessionId=...&message=...
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	response := h.pipeline.Handle(r.Context(), pipeline.Request{
		Message:      message,
		SessionID:    r.URL.Query().Get("sessionId"),
		LanguageHint: r.URL.Query().Get("languageHint"),
		User:         h.identity.FromRequest(r),
	})

	utils.SendSSEEvent(w, flusher, "session", map[string]string{"sessionId": response.SessionID})

	runes := []rune(response.Response)
	for start := 0; start < len(runes); start += chunkSize {
		select {
		case <-r.Context().Done():
			h.logger.Debug("client closed stream", zap.String("sessionId", response.SessionID))
			return
		default:
		}

		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		utils.SendSSEEvent(w, flusher, "chunk", map[string]string{"content": string(runes[start:end])})
	}

	utils.SendSSEEvent(w, flusher, "done", map[string]any{
		"sessionId": response.SessionID,
		"metadata":  response.Metadata,
	})
}
