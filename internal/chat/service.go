// Package chat implements the retrieval-augmented chat pipeline: retrieve,
// assemble context, compose the prompt, call the model, persist the turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/config"
	"github.com/Brunobgr08/chat-rag-ia/internal/llm"
	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/internal/rag"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
	"github.com/Brunobgr08/chat-rag-ia/internal/whatsapp"
	"github.com/Brunobgr08/chat-rag-ia/pkg/utils"
)

// ErrNotConfigured is returned when no OpenRouter API key has been saved yet.
// Handlers map it to a client error telling the user to configure the key.
var ErrNotConfigured = errors.New("OpenRouter API key not configured")

// titleMaxChars bounds conversation titles derived from the first message.
const titleMaxChars = 50

// Retriever selects ranked documents for a query. Failures degrade to an
// empty result rather than an error.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) []models.RankedDocument
}

// Service runs chat turns against the document corpus.
type Service struct {
	store     storage.Storage
	retriever Retriever
	completer llm.Completer
	gateway   whatsapp.Gateway
	cfg       *config.Config
	logger    *zap.Logger

	// Per-conversation locks serialize the read-append-replace persistence
	// step so concurrent turns on the same conversation cannot lose messages.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates the chat service.
func NewService(
	store storage.Storage,
	retriever Retriever,
	completer llm.Completer,
	gateway whatsapp.Gateway,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		retriever: retriever,
		completer: completer,
		gateway:   gateway,
		cfg:       cfg,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetGateway wires the messaging gateway after construction. The gateway reads
// Evolution credentials from this service, so the two cannot be built in one
// step.
func (s *Service) SetGateway(g whatsapp.Gateway) {
	s.gateway = g
}

// AppConfig returns the runtime configuration, falling back to configured
// defaults when the app_config row has never been saved.
func (s *Service) AppConfig(ctx context.Context) (*models.AppConfig, error) {
	appCfg, err := s.store.GetAppConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.AppConfig{
			SelectedModel:   s.cfg.Defaults.Model,
			SystemPrompt:    s.cfg.Defaults.SystemPrompt,
			EvolutionAPIURL: s.cfg.Defaults.EvolutionAPIURL,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	if appCfg.SelectedModel == "" {
		appCfg.SelectedModel = s.cfg.Defaults.Model
	}
	if appCfg.SystemPrompt == "" {
		appCfg.SystemPrompt = s.cfg.Defaults.SystemPrompt
	}
	if appCfg.EvolutionAPIURL == "" {
		appCfg.EvolutionAPIURL = s.cfg.Defaults.EvolutionAPIURL
	}
	return appCfg, nil
}

// EvolutionCredentials implements whatsapp.CredentialsSource by reading the
// app_config row at call time.
func (s *Service) EvolutionCredentials(ctx context.Context) (whatsapp.Credentials, error) {
	appCfg, err := s.AppConfig(ctx)
	if err != nil {
		return whatsapp.Credentials{}, err
	}
	return whatsapp.Credentials{
		APIURL: appCfg.EvolutionAPIURL,
		APIKey: appCfg.EvolutionAPIKey,
	}, nil
}

// Ask runs one chat turn: retrieve documents, build the context and prompt,
// call the model, persist the turn, and return the answer with its sources.
//
// When conversationID is empty a new conversation is created, titled from the
// first message. A model failure fails the whole turn; nothing is persisted.
func (s *Service) Ask(ctx context.Context, message, conversationID string) (*models.ChatResponse, error) {
	appCfg, err := s.AppConfig(ctx)
	if err != nil {
		return nil, err
	}
	if appCfg.OpenRouterAPIKey == "" {
		return nil, ErrNotConfigured
	}

	answer, docs, err := s.complete(ctx, appCfg, message)
	if err != nil {
		return nil, err
	}

	convID := conversationID
	if convID == "" {
		convID = s.startConversation(ctx, titleFrom(message), message, answer, "")
	} else {
		s.appendTurn(ctx, convID, message, answer, "")
	}

	return &models.ChatResponse{
		Response:       answer,
		ConversationID: convID,
		Sources:        sourcesFrom(docs),
	}, nil
}

// complete runs the retrieval and model-call part of a turn.
func (s *Service) complete(ctx context.Context, appCfg *models.AppConfig, message string) (string, []models.RankedDocument, error) {
	docs := s.retriever.Search(ctx, message, s.cfg.Search.DefaultLimit)
	contextBlock := rag.BuildContext(docs)
	prompt := rag.BuildPrompt(message, contextBlock, appCfg.SystemPrompt)

	answer, err := s.completer.Complete(ctx, &llm.Request{
		APIKey:      appCfg.OpenRouterAPIKey,
		Model:       appCfg.SelectedModel,
		System:      prompt,
		User:        message,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: s.cfg.LLM.Temperature,
	})
	if err != nil {
		return "", nil, err
	}
	return answer, docs, nil
}

// ProcessWebhookEvent handles one Evolution webhook delivery. Only inbound
// messages.upsert events with extractable text are processed; everything else
// is acknowledged and dropped. Gateway failures never fail the event.
func (s *Service) ProcessWebhookEvent(ctx context.Context, instance string, event *whatsapp.WebhookEvent) error {
	if event.Event != whatsapp.EventMessagesUpsert {
		return nil
	}
	data := &event.Data
	if data.Key.FromMe {
		return nil
	}
	text := data.Text()
	if text == "" {
		return nil
	}

	remoteJid := data.Key.RemoteJid
	s.logger.Info("webhook message received",
		zap.String("instance", instance), zap.String("from", remoteJid))

	s.gateway.MarkAsRead(ctx, instance, data.Key.ID, remoteJid)

	appCfg, err := s.AppConfig(ctx)
	if err != nil {
		return err
	}
	if appCfg.OpenRouterAPIKey == "" {
		s.sendReply(ctx, instance, remoteJid,
			"Desculpe, o assistente ainda não foi configurado. Tente novamente mais tarde.")
		return nil
	}

	answer, _, err := s.complete(ctx, appCfg, text)
	if err != nil {
		s.logger.Error("webhook turn failed", zap.String("from", remoteJid), zap.Error(err))
		s.sendReply(ctx, instance, remoteJid,
			"Desculpe, ocorreu um erro ao processar sua mensagem.")
		return err
	}

	// A send failure does not undo the turn; the exchange is recorded either way.
	s.sendReply(ctx, instance, remoteJid, answer)

	title := fmt.Sprintf("WhatsApp: %s - %s", remoteJid, titleFrom(text))
	s.startConversation(ctx, title, text, answer, remoteJid)
	return nil
}

func (s *Service) sendReply(ctx context.Context, instance, number, text string) {
	if err := s.gateway.SendText(ctx, instance, number, text); err != nil {
		s.logger.Warn("send reply failed",
			zap.String("instance", instance), zap.String("number", number), zap.Error(err))
	}
}

// startConversation persists a new conversation holding one completed turn and
// returns its ID. Persistence failures are logged, not surfaced: the user
// already has the answer.
func (s *Service) startConversation(ctx context.Context, title, question, answer, from string) string {
	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:    uuid.New().String(),
		Title: title,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: question, Timestamp: now, From: from},
			{Role: models.RoleAssistant, Content: answer, Timestamp: now},
		},
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		s.logger.Error("persist conversation failed", zap.Error(err))
	}
	return conv.ID
}

// appendTurn appends a user/assistant pair to an existing conversation. An
// unknown ID is a silent no-op, matching the create-or-ignore accumulation
// contract; the caller still gets its answer.
func (s *Service) appendTurn(ctx context.Context, id, question, answer, from string) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("append to unknown conversation ignored", zap.String("id", id))
		return
	}
	if err != nil {
		s.logger.Error("load conversation failed", zap.String("id", id), zap.Error(err))
		return
	}

	now := time.Now().UTC()
	messages := append(conv.Messages,
		models.Message{Role: models.RoleUser, Content: question, Timestamp: now, From: from},
		models.Message{Role: models.RoleAssistant, Content: answer, Timestamp: now},
	)
	if err := s.store.ReplaceMessages(ctx, id, messages); err != nil {
		s.logger.Error("persist turn failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

func titleFrom(message string) string {
	return utils.TruncateClean(message, titleMaxChars)
}

func sourcesFrom(docs []models.RankedDocument) []models.Source {
	sources := make([]models.Source, len(docs))
	for i, rd := range docs {
		sources[i] = models.Source{
			ID:        rd.Document.ID,
			Name:      rd.Document.Name,
			Relevance: rd.Rank,
		}
	}
	return sources
}
