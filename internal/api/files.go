package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/log"
)

type FileHandler struct {
	log           log.LoggerService
	library       *library.Service
	presenter     Presenter
	maxUploadSize int64
}

func NewFileHandler(logger log.LoggerService, svc *library.Service, presenter Presenter, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		log:           logger.Named("files"),
		library:       svc,
		presenter:     presenter,
		maxUploadSize: maxUploadSize,
	}
}

// GET /api/files
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.library.ListFiles(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Files(files))
}

// POST /api/files (multipart/form-data)
// field: "file"
func (h *FileHandler) Upload(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondMessage(c, http.StatusRequestEntityTooLarge, "Upload exceeds %d bytes", tooLarge.Limit)
			return
		}
		RespondError(c, h.log, library.ValidationError("Request must contain a 'file' part"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondError(c, h.log, library.StorageError(err, "failed to open multipart file '%s'", fh.Filename))
		return
	}
	defer f.Close()

	file, err := h.library.RegisterFile(c.Request.Context(), fh.Filename, f)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, h.presenter.File(*file))
}

type UploadHandler struct {
	log     log.LoggerService
	library *library.Service
}

func NewUploadHandler(logger log.LoggerService, svc *library.Service) *UploadHandler {
	return &UploadHandler{
		log:     logger.Named("uploads"),
		library: svc,
	}
}

// GET /uploads/:filename
func (h *UploadHandler) Serve(c *gin.Context) {
	upload, err := h.library.OpenUpload(c.Request.Context(), c.Param("filename"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	defer upload.Content.Close()

	c.Header("Content-Type", upload.ContentType)
	http.ServeContent(c.Writer, c.Request, upload.Name, upload.ModTime, upload.Content)
}
