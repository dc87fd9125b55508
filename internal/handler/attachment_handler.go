package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/client"
	"kanban-sync/internal/dto"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

// maxUploadBytes bounds a multipart upload read into memory
const maxUploadBytes = 100 << 20

type AttachmentHandler struct {
	attachmentService service.AttachmentService
	logger            *zap.Logger
}

func NewAttachmentHandler(attachmentService service.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// UploadAttachment godoc
// @Summary      Attach a media file to a task
// @Description  Uploads to the media host, or stores the file inline when the host is missing or fails
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Task ID"
// @Param        file formData file   true "Media file"
// @Success      201 {object} response.SuccessResponse{data=dto.AttachmentResponse}
// @Failure      413 {object} response.ErrorResponse "Inline file over the size ceiling"
// @Router       /tasks/{id}/attachments [post]
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "File is required")
		return
	}
	if header.Size > maxUploadBytes {
		response.SendError(c, http.StatusRequestEntityTooLarge, response.ErrCodePayloadTooLarge, "File too large")
		return
	}

	f, err := header.Open()
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	task, attachment, err := h.attachmentService.Attach(c.Request.Context(), c.Param("id"), client.MediaFile{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Attachment added",
		zap.String("task_id", task.ID),
		zap.String("attachment_id", attachment.ID),
		zap.String("type", string(attachment.Type)),
		zap.Int("size", len(data)),
	)
	response.SendSuccess(c, http.StatusCreated, dto.AttachmentResponse{Task: task, Attachment: attachment})
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	task, err := h.attachmentService.Remove(c.Request.Context(), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, task)
}
