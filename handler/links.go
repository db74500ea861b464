package handler

import (
	"net/http"

	"notespace/dto"
	"notespace/model"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

func noteLinks(c *gin.Context) func(note model.Note) map[string]dto.Link {
	base := utils.GetBaseURL(c)
	return func(note model.Note) map[string]dto.Link {
		self := base + "/notes/" + note.ID
		links := map[string]dto.Link{
			"self":     {Href: self, Method: http.MethodGet},
			"update":   {Href: self, Method: http.MethodPatch},
			"favorite": {Href: self + "/favorite", Method: http.MethodPost},
			"move":     {Href: self + "/move", Method: http.MethodPost},
			"delete":   {Href: self, Method: http.MethodDelete},
		}
		switch note.State() {
		case model.StateActive:
			links["archive"] = dto.Link{Href: self + "/archive", Method: http.MethodPost}
			links["trash"] = dto.Link{Href: self + "/trash", Method: http.MethodPost}
		case model.StateArchived:
			links["unarchive"] = dto.Link{Href: self + "/unarchive", Method: http.MethodPost}
			links["trash"] = dto.Link{Href: self + "/trash", Method: http.MethodPost}
		case model.StateTrashed:
			links["restore"] = dto.Link{Href: self + "/restore", Method: http.MethodPost}
		}
		if note.HasFolder() {
			links["folder"] = dto.Link{Href: base + "/notes?view=folder&folder_id=" + *note.FolderID, Method: http.MethodGet}
		}
		return links
	}
}

func folderLinks(c *gin.Context, folder model.Folder) map[string]dto.Link {
	base := utils.GetBaseURL(c)
	self := base + "/folders/" + folder.ID
	return map[string]dto.Link{
		"self":   {Href: self, Method: http.MethodPatch},
		"notes":  {Href: base + "/notes?view=folder&folder_id=" + folder.ID, Method: http.MethodGet},
		"delete": {Href: self, Method: http.MethodDelete},
	}
}
