package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dreamreel/internal/pipeline"
)

type generateResponse struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Generate runs the full story-to-video pipeline for one request.
func (h HandlerSet) Generate(c *gin.Context) {
	text := c.PostForm("text")

	var imageData []byte
	if file, _, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		imageData, err = io.ReadAll(file)
		if err != nil {
			h.log.Error().Err(err).Msg("read uploaded image failed")
			c.JSON(http.StatusBadRequest, generateResponse{
				Status:  "error",
				Message: "could not read uploaded image",
			})
			return
		}
	}

	result, err := h.pipeline.Run(c.Request.Context(), pipeline.Input{
		Text:  text,
		Image: imageData,
	})
	if err != nil {
		status := statusForError(err)
		h.log.Error().
			Err(err).
			Int("status", status).
			Str("request_id", c.Writer.Header().Get("X-Request-Id")).
			Msg("pipeline failed")
		c.JSON(status, generateResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Status:   "success",
		VideoURL: result.VideoURL,
		Emotion:  string(result.Emotion),
		ImageURL: result.ImageURL,
	})
}

func statusForError(err error) int {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case pipeline.KindValidation:
			return http.StatusBadRequest
		case pipeline.KindRemote:
			return http.StatusBadGateway
		case pipeline.KindIO:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
