package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/db/models"
	"github.com/mwantia/tuneful/pkg/log"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type FileResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type SongResponse struct {
	ID   uint         `json:"id"`
	File FileResponse `json:"file"`
}

// Presenter turns records into response bodies. Paths are resolved against
// an optional public base URL.
type Presenter struct {
	baseURL string
}

func NewPresenter(baseURL string) Presenter {
	return Presenter{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p Presenter) UploadPath(name string) string {
	return fmt.Sprintf("%s/uploads/%s", p.baseURL, url.PathEscape(name))
}

func (p Presenter) File(file models.File) FileResponse {
	return FileResponse{
		ID:   file.ID,
		Name: file.Name,
		Path: p.UploadPath(file.Name),
	}
}

func (p Presenter) Files(files []models.File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, file := range files {
		out = append(out, p.File(file))
	}
	return out
}

func (p Presenter) Song(song models.Song) SongResponse {
	return SongResponse{
		ID:   song.ID,
		File: p.File(song.File),
	}
}

func (p Presenter) Songs(songs []models.Song) []SongResponse {
	out := make([]SongResponse, 0, len(songs))
	for _, song := range songs {
		out = append(out, p.Song(song))
	}
	return out
}

func RespondMessage(c *gin.Context, status int, format string, args ...any) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: fmt.Sprintf(format, args...)})
}

// RespondError translates a service error into its status code. Storage
// failures are logged and never reach the client in detail.
func RespondError(c *gin.Context, logger log.LoggerService, err error) {
	switch library.KindOf(err) {
	case library.KindValidation:
		RespondMessage(c, http.StatusUnprocessableEntity, "%s", err.Error())
	case library.KindNotFound:
		RespondMessage(c, http.StatusNotFound, "%s", err.Error())
	case library.KindConflict:
		RespondMessage(c, http.StatusConflict, "%s", err.Error())
	default:
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		RespondMessage(c, http.StatusInternalServerError, "Internal server error")
	}
}
