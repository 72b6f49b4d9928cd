package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// MemoryView is the API representation of a stored record. Embeddings are
// internal and never serialized.
type MemoryView struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
}

// ChatResponse is the body of a successful POST /api/chat.
type ChatResponse struct {
	Reply             string       `json:"reply"`
	RetrievedMemories []MemoryView `json:"retrieved_memories"`
	StoredCount       int          `json:"stored_count"`
	Compressed        bool         `json:"compressed"`
	LatencyMillis     int64        `json:"latency_ms"`
}

// ErrorResponse is the body of any error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleChat runs one conversational turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.manager.Chat(r.Context(), s.sess, message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("chat failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Reply:             result.Reply,
		RetrievedMemories: toMemoryViews(result.Retrieved),
		StoredCount:       len(result.Stored),
		Compressed:        result.Compacted,
		LatencyMillis:     result.Latency.Milliseconds(),
	})
}

// handleMemories lists stored memories. An optional "query" parameter runs
// retrieval instead of a full listing; "category" filters either way.
func (s *Server) handleMemories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	category := types.Category(r.URL.Query().Get("category"))

	var memories []types.MemoryRecord
	var err error

	if query != "" {
		memories, err = s.manager.Retrieve(r.Context(), query, 20, category)
	} else {
		memories, err = s.store.All(r.Context())
		if err == nil && category.IsValid() {
			filtered := memories[:0:0]
			for i := range memories {
				if memories[i].Category == category {
					filtered = append(filtered, memories[i])
				}
			}
			memories = filtered
		}
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list memories: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"memories": toMemoryViews(memories),
	})
}

// handleMessages returns the session's conversation window.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	msgs := s.sess.Messages()
	out := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]string{
			"role":    m.Role,
			"content": m.Content,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// handleHealth reports store and connection status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("store unavailable: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"memory_count":  count,
		"llm_available": s.manager.LLMAvailable(),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

func toMemoryView(record types.MemoryRecord) MemoryView {
	return MemoryView{
		ID:        record.ID,
		Content:   record.Content,
		Category:  string(record.Category),
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toMemoryViews(records []types.MemoryRecord) []MemoryView {
	views := make([]MemoryView, 0, len(records))
	for i := range records {
		views = append(views, toMemoryView(records[i]))
	}
	return views
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	})
}
