package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oviehub/moviehub/internal/logger"
)

const (
	missingContextMessage = "Missing movie context (title required)"
	chatFailureMessage    = "Something went wrong while contacting the movie assistant. Please try again later."
	emptyReplyFallback    = "Sorry, I could not generate a response."
	defaultQuestion       = "Give me an overview of this movie."
)

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatEndpointRequest accepts both supported body shapes:
// {context, messages} and {movieContext, question}.
type chatEndpointRequest struct {
	Context      json.RawMessage `json:"context"`
	Messages     []chatTurn      `json:"messages"`
	MovieContext json.RawMessage `json:"movieContext"`
	Question     string          `json:"question"`
}

type chatReplyResponse struct {
	Reply string `json:"reply"`
}

// movieChatInput is the normalized internal request both shapes map into
// before any business logic runs.
type movieChatInput struct {
	Movie    map[string]any
	Question string
}

func normalizeChatRequest(req *chatEndpointRequest) (movieChatInput, error) {
	raw := req.Context
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = req.MovieContext
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return movieChatInput{}, badRequest(missingContextMessage)
	}

	var movie map[string]any
	if err := json.Unmarshal(raw, &movie); err != nil {
		return movieChatInput{}, badRequest(missingContextMessage)
	}
	title, _ := movie["title"].(string)
	if strings.TrimSpace(title) == "" {
		return movieChatInput{}, badRequest(missingContextMessage)
	}

	question := strings.TrimSpace(req.Question)
	if question == "" && len(req.Messages) > 0 {
		question = strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)
	}
	if question == "" {
		question = defaultQuestion
	}

	return movieChatInput{Movie: movie, Question: question}, nil
}

func buildChatPrompt(input movieChatInput) string {
	movieJSON, err := json.MarshalIndent(input.Movie, "", "  ")
	if err != nil {
		movieJSON = []byte("{}")
	}

	return fmt.Sprintf(`You are Ovi, a friendly movie assistant embedded in the OvieHub site.

Use ONLY the information in the MOVIE CONTEXT below when answering.
If the user asks about unrelated topics (other movies, personal life, politics, etc.),
politely say you can only answer questions about this movie and guide them back.

MOVIE CONTEXT (JSON):
%s

User question:
%s

Answer in short, clear paragraphs. If you are unsure about something, say so instead of inventing details.`,
		movieJSON, input.Question)
}

func (h *Handler) postMovieChat(w http.ResponseWriter, r *http.Request) error {
	var req chatEndpointRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}

	input, err := normalizeChatRequest(&req)
	if err != nil {
		return err
	}

	text, err := h.chat.Generate(r.Context(), buildChatPrompt(input))
	if err != nil {
		slog.Warn("movie chat: generate failed", logger.Error(err))
		return serverError(chatFailureMessage)
	}

	if strings.TrimSpace(text) == "" {
		text = emptyReplyFallback
	}

	writeJSON(w, http.StatusOK, &chatReplyResponse{Reply: text})
	return nil
}
