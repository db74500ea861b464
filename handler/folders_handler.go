package handler

import (
	"notespace/dto"
	"notespace/model"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

func toFolderResponse(c *gin.Context, store *usecase.NotesStore, folder model.Folder, counts map[string]int) dto.FolderResponse {
	status, _ := store.Status(folder.ID)
	return dto.ToFolderResponse(folder, counts[folder.ID], status, folderLinks(c, folder))
}

// GetFoldersHandler lists the user's folders with their note counts. Root
// folders are left out.
func GetFoldersHandler(c *gin.Context, store *usecase.NotesStore) {
	counts := store.Counts().Folders
	folders := store.UserFolders()

	responses := make([]dto.FolderResponse, len(folders))
	for i, folder := range folders {
		responses[i] = toFolderResponse(c, store, folder, counts)
	}

	utils.Success(c, gin.H{
		"folders": responses,
		"count":   len(responses),
	})
}

func CreateFolderHandler(c *gin.Context, store *usecase.NotesStore) {
	var req dto.FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	folder, err := store.CreateFolder(c.Request.Context(), req.Name)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Folder created", toFolderResponse(c, store, folder, nil))
}

func RenameFolderHandler(c *gin.Context, store *usecase.NotesStore) {
	var req dto.FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	folder, err := store.RenameFolder(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMessage(c, "Folder renamed", toFolderResponse(c, store, folder, store.Counts().Folders))
}

// DeleteFolderHandler deletes the folder. Its notes lose the folder
// reference and keep their other flags.
func DeleteFolderHandler(c *gin.Context, store *usecase.NotesStore) {
	if err := store.DeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMessage(c, "Folder deleted", nil)
}
