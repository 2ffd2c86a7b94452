package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/dedup"
	"app/internal/model"
	"app/internal/service"
	"app/internal/task"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UpdateHandler receives webhook deliveries from the chat platform and
// routes them to the chat or generation pipeline. The webhook always gets
// 200 once the update is accepted; processing happens after the response so
// the platform never retries on slow generations.
type UpdateHandler struct {
	dedup      *dedup.Deduplicator
	users      service.UserService
	chat       service.ChatService
	generation service.GenerationService
	quota      service.QuotaService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewUpdateHandler(
	d *dedup.Deduplicator,
	users service.UserService,
	chat service.ChatService,
	generation service.GenerationService,
	quota service.QuotaService,
	v *validator.Validate,
	logger zerolog.Logger,
) *UpdateHandler {
	return &UpdateHandler{
		dedup:      d,
		users:      users,
		chat:       chat,
		generation: generation,
		quota:      quota,
		validate:   v,
		logger:     logger.With().Str("handler", "UpdateHandler").Logger(),
	}
}

// RegisterRoutes mounts the webhook route.
func (h *UpdateHandler) RegisterRoutes(mux *http.ServeMux, webhookMw func(http.Handler) http.Handler) {
	mux.Handle("/updates", webhookMw(http.HandlerFunc(h.receiveUpdate)))
}

// receiveUpdate godoc
// @Summary Receive a chat update
// @Description Accepts one webhook delivery from the chat platform. Duplicate deliveries are acknowledged and dropped.
// @Tags updates
// @Accept json
// @Produce json
// @Param update body dto.UpdateDTO true "Chat update"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Invalid JSON payload"
// @Router /updates [post]
func (h *UpdateHandler) receiveUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Duplicates are acknowledged, never reprocessed. The platform redelivers
	// on timeouts, so this check comes before any work.
	if !h.dedup.ShouldProcess(req.UpdateID) {
		h.logger.Debug().Int64("update_id", req.UpdateID).Msg("Duplicate update dropped")
		w.WriteHeader(http.StatusOK)
		return
	}

	update := model.Update{
		UpdateID: req.UpdateID,
		UserID:   req.UserID,
		Username: req.Username,
		Text:     req.Text,
	}

	// The webhook response must not wait for the pipeline. Processing gets a
	// fresh context since the request one dies with this handler.
	go h.dispatch(context.Background(), update)

	w.WriteHeader(http.StatusOK)
}

func (h *UpdateHandler) dispatch(ctx context.Context, update model.Update) {
	log := h.logger.With().Int64("update_id", update.UpdateID).Int64("user_id", update.UserID).Logger()

	if _, err := h.users.GetOrCreate(ctx, update.UserID, update.Username); err != nil {
		log.Error().Err(err).Msg("Failed to register user, dropping update")
		return
	}

	text := strings.TrimSpace(update.Text)
	command, args := splitCommand(text)

	switch command {
	case "/image":
		h.generation.Generate(ctx, update.UserID, task.CategoryImage, args)
	case "/video":
		h.generation.Generate(ctx, update.UserID, task.CategoryVideo, args)
	case "/usage":
		h.chatUsage(ctx, update.UserID)
	default:
		h.chat.Reply(ctx, update.UserID, text)
	}
}

func (h *UpdateHandler) chatUsage(ctx context.Context, userID int64) {
	snap, err := h.quota.Snapshot(ctx, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load usage snapshot")
		return
	}
	h.chat.ReplyUsage(ctx, userID, snap)
}

// splitCommand separates a leading slash command from its arguments. Plain
// text yields an empty command.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	parts := strings.SplitN(text, " ", 2)
	command := parts[0]
	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return command, args
}
