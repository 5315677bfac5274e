package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/coredev-id/coredev-web/internal/app/middleware"
)

const systemPrompt = "You are the CoreDev assistant. Answer questions about " +
	"software development, the CoreDev team and its projects. Keep answers " +
	"short and friendly."

// Generator is the slice of the LLM client the chat page needs.
type Generator interface {
	GenerateContentStream(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (iter.Seq2[*genai.GenerateContentResponse, error], error)
}

type ChatHandlers struct {
	generator Generator
	logger    *zap.Logger
}

// NewChatHandlers accepts a nil generator; the page then renders in its
// unavailable state and Ask refuses requests.
func NewChatHandlers(generator Generator, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		generator: generator,
		logger:    logger,
	}
}

// ChatPage renders the assistant page.
func (h *ChatHandlers) ChatPage(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get(middleware.SessionTokenSessionKey).(string)

	c.HTML(http.StatusOK, "chat.html", gin.H{
		"Title":     "Assistant",
		"Theme":     middleware.GetThemeFromContext(c),
		"LoggedIn":  token != "",
		"Available": h.generator != nil,
	})
}

// Ask streams the model answer back as SSE data events. Each event carries a
// JSON-encoded text chunk so newlines survive the wire format.
func (h *ChatHandlers) Ask(c *gin.Context) {
	if h.generator == nil {
		c.String(http.StatusServiceUnavailable, "The assistant is not available right now.")
		return
	}

	prompt := c.PostForm("prompt")
	if prompt == "" {
		c.String(http.StatusBadRequest, "Missing prompt")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.logger.Error("Response writer does not support flushing")
		c.String(http.StatusInternalServerError, "Streaming not supported")
		return
	}

	ctx := c.Request.Context()
	stream, err := h.generator.GenerateContentStream(ctx, systemPrompt+"\n\nQuestion: "+prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err != nil {
		h.logger.Error("Failed to start content stream", zap.Error(err))
		c.String(http.StatusBadGateway, "The assistant is not available right now.")
		return
	}

	for resp, err := range stream {
		if ctx.Err() != nil {
			h.logger.Info("Client disconnected during chat stream")
			return
		}
		if err != nil {
			h.logger.Error("Chat stream failed", zap.Error(err))
			return
		}

		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("Failed to encode chunk", zap.Error(err))
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}
