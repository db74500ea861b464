package handler

import (
	"notespace/dto"
	"notespace/middleware"
	"notespace/model"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

func statusOf(store *usecase.NotesStore) func(id string) model.SyncStatus {
	return func(id string) model.SyncStatus {
		status, _ := store.Status(id)
		return status
	}
}

func writeNote(c *gin.Context, store *usecase.NotesStore, note model.Note, message string) {
	status, _ := store.Status(note.ID)
	utils.SuccessMessage(c, message, dto.ToNoteResponse(note, status, noteLinks(c)(note)))
}

// GetNotesHandler answers one view of the local notes. No remote call.
func GetNotesHandler(c *gin.Context, store *usecase.NotesStore) {
	view, err := usecase.ParseView(c.Query("view"), c.Query("folder_id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	notes := store.View(view)
	utils.Success(c, dto.NotesViewResponse{
		View:  view.String(),
		Notes: dto.ToNoteResponses(notes, statusOf(store), noteLinks(c)),
		Count: len(notes),
		Links: map[string]dto.Link{
			"self":    {Href: utils.GetBaseURL(c) + "/notes?" + c.Request.URL.RawQuery, Method: "GET"},
			"counts":  {Href: utils.GetBaseURL(c) + "/counts", Method: "GET"},
			"refresh": {Href: utils.GetBaseURL(c) + "/notes/refresh", Method: "POST"},
		},
	})
}

// RefreshNotesHandler reloads notes and folders from the remote service.
func RefreshNotesHandler(c *gin.Context, store *usecase.NotesStore) {
	ctx := c.Request.Context()

	if _, err := store.ListFolders(ctx); err != nil {
		utils.Fail(c, err)
		return
	}
	notes, err := store.ListNotes(ctx)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, dto.NotesViewResponse{
		View:  "all",
		Notes: dto.ToNoteResponses(notes, statusOf(store), noteLinks(c)),
		Count: len(notes),
	})
}

func GetNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, ok := store.Note(c.Param("id"))
	if !ok {
		utils.NotFound(c, "Note not found")
		return
	}
	writeNote(c, store, note, "")
}

func CreateNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	// Bound and validated by middleware.ValidateJSON
	req, ok := middleware.BoundInput[dto.CreateNoteRequest](c)
	if !ok {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note, err := store.CreateNote(c.Request.Context(), req.ToInput())
	if err != nil {
		utils.Fail(c, err)
		return
	}

	status, _ := store.Status(note.ID)
	utils.Created(c, "Note created", dto.ToNoteResponse(note, status, noteLinks(c)(note)))
}

func UpdateNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	note, err := store.UpdateNote(c.Request.Context(), c.Param("id"), req.ToPatch())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note updated")
}

func TrashNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, err := store.MoveToTrash(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note moved to trash")
}

func RestoreNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, err := store.RestoreFromTrash(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note restored from trash")
}

func ArchiveNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, err := store.ArchiveNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note archived")
}

func UnarchiveNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, err := store.UnarchiveNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note unarchived")
}

func ToggleFavoriteHandler(c *gin.Context, store *usecase.NotesStore) {
	note, err := store.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	message := "Removed from favorites"
	if note.IsFavorite {
		message = "Added to favorites"
	}
	writeNote(c, store, note, message)
}

func MoveNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	var req dto.MoveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	note, err := store.MoveNote(c.Request.Context(), c.Param("id"), req.FolderID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	writeNote(c, store, note, "Note moved")
}

func DeleteNoteHandler(c *gin.Context, store *usecase.NotesStore) {
	if err := store.DeleteNotePermanently(c.Request.Context(), c.Param("id")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMessage(c, "Note permanently deleted", nil)
}

func GetCountsHandler(c *gin.Context, store *usecase.NotesStore) {
	utils.Success(c, dto.CountsResponse{
		ViewCounts: store.Counts(),
		Links: map[string]dto.Link{
			"self": {Href: utils.GetBaseURL(c) + "/counts", Method: "GET"},
		},
	})
}
