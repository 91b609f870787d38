package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/upload"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// UploadFileHandler uploads one file from multipart/form-data (field "file")
// and starts polling its processing job.
func UploadFileHandler(c echo.Context) error {
	type uploadFileResponse struct {
		Message string        `json:"message"`
		Upload  *upload.State `json:"upload,omitempty"`
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadFileResponse{
			Message: "Invalid request body",
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", "file", file.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadFileResponse{
			Message: "Internal server error",
		})
	}
	defer src.Close()

	s := sessionOf(c)
	err = s.SubmitFile(c.Request().Context(), file.Filename, file.Header.Get("Content-Type"), src)
	state := s.Upload().State()
	switch {
	case errors.Is(err, upload.ErrUnsupportedFileType):
		return c.JSON(http.StatusUnsupportedMediaType, uploadFileResponse{
			Message: upload.NoticeUnsupported,
			Upload:  &state,
		})
	case errors.Is(err, upload.ErrBusy):
		return c.JSON(http.StatusConflict, uploadFileResponse{
			Message: "An upload is already in progress",
			Upload:  &state,
		})
	case errors.Is(err, upload.ErrClosed):
		return c.JSON(http.StatusGone, uploadFileResponse{
			Message: "Session closed",
		})
	case err != nil:
		logger.Error("Failed to upload file", "session_id", s.ID(), "file", file.Filename, "err", err)
		return c.JSON(http.StatusBadGateway, uploadFileResponse{
			Message: upload.NoticeUploadFailed,
			Upload:  &state,
		})
	}

	return c.JSON(http.StatusAccepted, uploadFileResponse{
		Message: upload.MsgUploaded,
		Upload:  &state,
	})
}
