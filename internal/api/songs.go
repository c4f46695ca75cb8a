package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/log"
)

type SongHandler struct {
	log       log.LoggerService
	library   *library.Service
	presenter Presenter
}

func NewSongHandler(logger log.LoggerService, svc *library.Service, presenter Presenter) *SongHandler {
	return &SongHandler{
		log:       logger.Named("songs"),
		library:   svc,
		presenter: presenter,
	}
}

// GET /api/songs
func (h *SongHandler) List(c *gin.Context) {
	songs, err := h.library.ListSongs(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Songs(songs))
}

// POST /api/songs
// body: {"file": {"id": <int>}}
func (h *SongHandler) Create(c *gin.Context) {
	in, err := bindSongInput(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	song, err := h.library.CreateSong(c.Request.Context(), in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/songs/%d", song.ID))
	c.JSON(http.StatusCreated, h.presenter.Song(*song))
}

// GET /api/songs/:id
func (h *SongHandler) Get(c *gin.Context) {
	id, ok := songID(c)
	if !ok {
		return
	}

	song, err := h.library.GetSong(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Song(*song))
}

// PUT /api/songs/:id
// body: {"file": {"id": <int>}}
func (h *SongHandler) Update(c *gin.Context) {
	id, ok := songID(c)
	if !ok {
		return
	}

	in, err := bindSongInput(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	song, err := h.library.UpdateSong(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Song(*song))
}

// DELETE /api/songs/:id
func (h *SongHandler) Delete(c *gin.Context) {
	id, ok := songID(c)
	if !ok {
		return
	}

	song, err := h.library.DeleteSong(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Song(*song))
}

func songID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		RespondMessage(c, http.StatusNotFound, "Could not find song with id %s", raw)
		return 0, false
	}
	return uint(id), true
}

var expectedTypes = map[string]string{
	"file":    "an object",
	"file.id": "a non-negative integer",
}

// bindSongInput decodes the request body and reports malformed payloads as
// validation errors.
func bindSongInput(c *gin.Context) (library.SongInput, error) {
	var in library.SongInput
	if err := c.ShouldBindJSON(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError

		switch {
		case errors.As(err, &typeErr) && expectedTypes[typeErr.Field] != "":
			return in, library.ValidationError("'%s' must be %s, got %s", typeErr.Field, expectedTypes[typeErr.Field], typeErr.Value)
		case errors.As(err, &typeErr), errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return in, library.ValidationError("Request body must be a JSON object")
		default:
			return in, library.ValidationError("Invalid request body: %v", err)
		}
	}
	return in, nil
}
