package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/chat"
	"github.com/Brunobgr08/chat-rag-ia/internal/extract"
	"github.com/Brunobgr08/chat-rag-ia/internal/ingest"
	"github.com/Brunobgr08/chat-rag-ia/internal/llm"
	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
	"github.com/Brunobgr08/chat-rag-ia/internal/whatsapp"
)

// uploadFieldName is the multipart form field carrying the document.
const uploadFieldName = "document"

// envelope is the JSON shape of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if _, err := s.storage.CountDocuments(r.Context()); err != nil {
		s.logger.Error("health: database check failed", zap.Error(err))
		dbStatus = "unreachable"
	}
	s.respondData(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	appCfg, err := s.chat.AppConfig(r.Context())
	if err != nil {
		s.logger.Error("load config failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]interface{}{
		"config":          appCfg,
		"availableModels": models.AvailableModels,
	})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var appCfg models.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&appCfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.storage.SaveAppConfig(r.Context(), &appCfg); err != nil {
		s.logger.Error("save config failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("app config saved", zap.String("model", appCfg.SelectedModel))
	s.respondData(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleValidateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		s.respondError(w, http.StatusBadRequest, "api_key is required")
		return
	}
	info, err := s.llm.ValidateKey(r.Context(), req.APIKey)
	if err != nil {
		s.logger.Error("key validation failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "could not reach OpenRouter")
		return
	}
	resp := map[string]interface{}{"valid": info != nil}
	if info != nil {
		resp["keyInfo"] = info
	}
	s.respondData(w, http.StatusOK, resp)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// One extra MiB leaves room for multipart framing; the real size limit is
	// enforced per file by the ingestor.
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxFileSize+1<<20)

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = extract.MimeTypeForPath(header.Filename)
	}

	doc, err := s.ingestor.Ingest(r.Context(), header.Filename, mimeType, data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrDisallowedType),
			errors.Is(err, ingest.ErrTooLarge),
			errors.Is(err, ingest.ErrEmptyContent):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("upload failed", zap.String("name", header.Filename), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondData(w, http.StatusCreated, doc.Summary())
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	ctx := r.Context()

	docs, err := s.storage.ListDocuments(ctx, (page-1)*limit, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]interface{}{
		"documents":  docs,
		"pagination": paginationInfo(page, limit, total),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.storage.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ingestor.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("delete document failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDocumentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.DocumentStats(r.Context())
	if err != nil {
		s.logger.Error("document stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, stats)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.chat.Ask(r.Context(), req.Message, req.ConversationID)
	if err != nil {
		var apiErr *llm.APIError
		switch {
		case errors.Is(err, chat.ErrNotConfigured):
			s.respondError(w, http.StatusBadRequest,
				"Configure sua API key do OpenRouter nas configurações.")
		case errors.As(err, &apiErr):
			s.logger.Error("chat upstream failed", zap.Int("status", apiErr.Status))
			s.respondError(w, http.StatusBadGateway, apiErr.Error())
		default:
			s.logger.Error("chat failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondData(w, http.StatusOK, resp)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	ctx := r.Context()

	convs, err := s.storage.ListConversations(ctx, (page-1)*limit, limit)
	if err != nil {
		s.logger.Error("list conversations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountConversations(ctx)
	if err != nil {
		s.logger.Error("count conversations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]interface{}{
		"conversations": convs,
		"pagination":    paginationInfo(page, limit, total),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.storage.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	err := s.storage.DeleteConversation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	instance := chi.URLParam(r, "instance")
	var event whatsapp.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := s.chat.ProcessWebhookEvent(r.Context(), instance, &event); err != nil {
		// The sender already got an error reply; Evolution only needs an ack.
		s.logger.Error("webhook processing failed",
			zap.String("instance", instance), zap.Error(err))
	}
	s.respondData(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) handleSendTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instance string `json:"instance"`
		Number   string `json:"number"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Instance == "" || req.Number == "" || req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "instance, number and text are required")
		return
	}

	if err := s.gateway.SendText(r.Context(), req.Instance, req.Number, req.Text); err != nil {
		if errors.Is(err, whatsapp.ErrNotConfigured) {
			s.respondError(w, http.StatusBadRequest,
				"Configure a URL e a API key da Evolution nas configurações.")
			return
		}
		s.logger.Error("send test failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) respondData(w http.ResponseWriter, status int, data interface{}) {
	s.respondJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, envelope{Success: false, Error: message})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

// pagination reads page and limit query parameters with sane bounds.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func paginationInfo(page, limit int, total int64) map[string]interface{} {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return map[string]interface{}{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
	}
}
