package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/gin-gonic/gin"
)

type StoresHandler struct {
	storeSvs StoreServicer
}

func NewStoresHandler(storeSvs StoreServicer) *StoresHandler {
	return &StoresHandler{storeSvs: storeSvs}
}

// Index GET RouteGroup + StoresRoute.
func (h *StoresHandler) Index(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	stores, err := h.storeSvs.List(reqCtx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	response := make([]StoreResponse, len(stores))
	for i, store := range stores {
		response[i] = StoreResponse{ID: store.ID, Name: store.Name}
	}
	c.JSON(http.StatusOK, response)
}

type NotesHandler struct {
	noteSvs NoteServicer
}

func NewNotesHandler(noteSvs NoteServicer) *NotesHandler {
	return &NotesHandler{noteSvs: noteSvs}
}

// Index GET RouteGroup + MemberNotesRoute.
func (h *NotesHandler) Index(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	notes, err := h.noteSvs.List(reqCtx, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	response := make([]NoteResponse, len(notes))
	for i := range notes {
		response[i] = newNoteResponse(&notes[i])
	}
	c.JSON(http.StatusOK, response)
}

type UpsertNoteParams struct {
	Category string `binding:"required,max=50"    json:"category"`
	Content  string `binding:"required,max=2000"  json:"content"`
}

// Upsert PUT RouteGroup + MemberNotesRoute. У участника одна заметка на категорию, повторная запись
// заменяет текст.
func (h *NotesHandler) Upsert(c *gin.Context) {
	var params UpsertNoteParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	note, err := h.noteSvs.Upsert(reqCtx, repoargs.UpsertNote{
		MemberID: c.Param("id"),
		Category: params.Category,
		Content:  params.Content,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newNoteResponse(note))
}

// Delete DELETE RouteGroup + NoteRoute.
func (h *NotesHandler) Delete(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.noteSvs.Delete(reqCtx, c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}
