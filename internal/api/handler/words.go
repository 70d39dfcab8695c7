package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordbattle/internal/api/request"
	"github.com/mcoot/wordbattle/internal/api/response"
	"github.com/mcoot/wordbattle/internal/services/words"
)

// WordsHandler handles word library endpoints
type WordsHandler struct {
	words *words.Service
}

// NewWordsHandler creates a new words handler
func NewWordsHandler(wordService *words.Service) *WordsHandler {
	return &WordsHandler{words: wordService}
}

// List handles GET /api/v1/words
func (h *WordsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.words.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, list)
}

// Add handles POST /api/v1/words
func (h *WordsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.AddWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}
	if req.Word == "" {
		WriteError(w, NewInvalidRequestError("word is required"))
		return
	}

	word, err := h.words.Add(r.Context(), req.Word)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.writeLibrary(w, r, http.StatusCreated, fmt.Sprintf("Added %q", word.Word))
}

// Delete handles DELETE /api/v1/words/{word}
func (h *WordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]

	if err := h.words.Delete(r.Context(), word); err != nil {
		WriteError(w, err)
		return
	}

	h.writeLibrary(w, r, http.StatusOK, fmt.Sprintf("Deleted %q", word))
}

// writeLibrary responds with a message and the library after a mutation
func (h *WordsHandler) writeLibrary(w http.ResponseWriter, r *http.Request, status int, message string) {
	list, err := h.words.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, status, response.WordsChanged{Message: message, Words: list})
}
