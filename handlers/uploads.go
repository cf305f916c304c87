package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type uploadContext struct {
	EntityType string `json:"entityType"`
	ProcessID  int    `json:"processId"`
	Field      string `json:"field"`
}

type uploadSignRequest struct {
	FileName string        `json:"fileName"`
	MimeType string        `json:"mimeType"`
	Size     int64         `json:"size"`
	Context  uploadContext `json:"context"`
}

type uploadCompleteRequest struct {
	ObjectKey string        `json:"objectKey"`
	FileName  string        `json:"fileName"`
	MimeType  string        `json:"mimeType"`
	Size      int64         `json:"size"`
	Context   uploadContext `json:"context"`
}

type uploadSignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

type uploadCompleteResponse struct {
	ObjectKey          string                  `json:"objectKey"`
	ThumbnailURL       string                  `json:"thumbnailUrl,omitempty"`
	ThumbnailObjectKey string                  `json:"thumbnailObjectKey,omitempty"`
	Document           *models.ProcessDocument `json:"document"`
}

const (
	maxUploadSizeBytes int64 = 5 * 1024 * 1024
	uploadURLLifetime        = 15 * time.Minute
	thumbnailWidth           = 200
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var attachmentMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/jpeg": true,
	"image/png":  true,
}

// validateSignRequest returns the object key the client must upload to.
// Keys always start with the tenant id: <tenant>/processes/<id>/<uuid><ext>.
func validateSignRequest(tenantId string, req uploadSignRequest) (string, error) {
	if req.FileName == "" || req.MimeType == "" || req.Size <= 0 {
		return "", utils.NewValidationError("fileName", "fileName, mimeType and size are required")
	}
	if req.Size > maxUploadSizeBytes {
		return "", utils.NewValidationError("size", "file size exceeds 5MB limit")
	}
	if isImageRequest(req) {
		if !imageMimeTypes[req.MimeType] {
			return "", utils.NewValidationError("mimeType", "unsupported image type")
		}
	} else if !attachmentMimeTypes[req.MimeType] {
		return "", utils.NewValidationError("mimeType", "unsupported file type")
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if ext == "" {
		ext = extensionFromMimeType(req.MimeType)
	}
	if ext == "" {
		return "", utils.NewValidationError("fileName", "file extension is required")
	}

	entity := normalizeEntity(req.Context.EntityType)
	if entity == "" {
		entity = "uploads"
	}
	if req.Context.ProcessID > 0 {
		return path.Join(tenantId, "processes", strconv.Itoa(req.Context.ProcessID), uuid.New().String()+ext), nil
	}
	return path.Join(tenantId, entity, uuid.New().String()+ext), nil
}

func (h *Handler) SignUpload(c *gin.Context, auth appctx.Auth) {
	requestID := requestIDFromHeaders(c)

	var req uploadSignRequest
	if !bindJSON(c, &req) {
		return
	}
	objectKey, err := validateSignRequest(auth.TenantId, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.MimeType, uploadURLLifetime)
	if err != nil {
		logUploadError(h.logger, err, requestID)
		message := "failed to sign upload"
		if !config.IsProduction() {
			message = fmt.Sprintf("failed to sign upload: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tenant_id":  auth.TenantId,
		"mime_type":  req.MimeType,
		"size":       req.Size,
		"object_key": objectKey,
	}).Info("[upload.sign]")

	c.JSON(http.StatusOK, gin.H{
		"data": uploadSignResponse{
			UploadURL: signed.UploadURL,
			Method:    signed.Method,
			Headers:   signed.Headers,
			ObjectKey: signed.ObjectKey,
			AccessURL: signed.AccessURL,
			ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// CompleteUpload links an uploaded object to its process. Images also get a thumbnail.
func (h *Handler) CompleteUpload(c *gin.Context, auth appctx.Auth) {
	requestID := requestIDFromHeaders(c)

	var req uploadCompleteRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ObjectKey == "" {
		h.respondError(c, utils.RequiredField("objectKey"))
		return
	}
	if req.Context.ProcessID <= 0 {
		h.respondError(c, utils.RequiredField("processId"))
		return
	}
	if !utils.IsSafeObjectKey(req.ObjectKey) || !strings.HasPrefix(req.ObjectKey, auth.TenantId+"/") {
		h.respondError(c, utils.NewValidationError("objectKey", "invalid object key"))
		return
	}

	ctx := c.Request.Context()
	response := uploadCompleteResponse{ObjectKey: req.ObjectKey}
	input := &models.NewProcessDocument{
		ProcessId: req.Context.ProcessID,
		Name:      req.FileName,
		ObjectKey: req.ObjectKey,
		Url:       utils.BuildObjectAccessURL(req.ObjectKey),
		MimeType:  req.MimeType,
		Size:      req.Size,
	}

	if isImageComplete(req) {
		thumbnailKey, err := createThumbnail(ctx, req.ObjectKey)
		if err != nil {
			logUploadError(h.logger, err, requestID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate thumbnail"})
			return
		}
		response.ThumbnailObjectKey = thumbnailKey
		response.ThumbnailURL = utils.BuildObjectAccessURL(thumbnailKey)
		input.ThumbnailUrl = response.ThumbnailURL
	}

	doc, err := models.CreateProcessDocument(ctx, input)
	if err != nil {
		logUploadError(h.logger, err, requestID)
		h.respondError(c, err)
		return
	}
	response.Document = doc

	h.logger.WithFields(logrus.Fields{
		"tenant_id":  auth.TenantId,
		"process_id": doc.ProcessId,
		"object_key": req.ObjectKey,
		"status":     "completed",
	}).Info("[upload.complete]")

	h.notifier.NotifyAsync(auth, correlationId(c), "processes", "document_attached", doc)
	c.JSON(http.StatusOK, gin.H{"data": response})
}

// UploadObject streams an object of the caller's tenant.
func (h *Handler) UploadObject(c *gin.Context, auth appctx.Auth) {
	objectKey := strings.TrimSpace(c.Query("key"))
	if !utils.IsSafeObjectKey(objectKey) || !strings.HasPrefix(objectKey, auth.TenantId+"/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}

	started := false
	err := utils.StreamObject(c.Request.Context(), objectKey, c.Writer, func(contentType string, size int64) {
		if contentType != "" {
			c.Writer.Header().Set("Content-Type", contentType)
		}
		if size > 0 {
			c.Writer.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		c.Status(http.StatusOK)
		started = true
	})
	if err == nil || started {
		if err != nil {
			logUploadError(h.logger, err, requestIDFromHeaders(c))
		}
		return
	}
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
	case errors.Is(err, utils.ErrStorageNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logUploadError(h.logger, err, requestIDFromHeaders(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage client error"})
	}
}

func (h *Handler) ListProcessDocuments(c *gin.Context, auth appctx.Auth) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	docs, err := models.ListProcessDocuments(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if docs == nil {
		docs = []*models.ProcessDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func createThumbnail(ctx context.Context, objectKey string) (string, error) {
	data, err := utils.ReadObject(ctx, objectKey, maxUploadSizeBytes)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}

func normalizeEntity(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "_")
	return sanitizeSegment(value)
}

func sanitizeSegment(input string) string {
	var out strings.Builder
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	case "application/msword":
		return ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.ms-excel":
		return ".xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	default:
		return ""
	}
}

func isImageRequest(req uploadSignRequest) bool {
	if strings.Contains(strings.ToLower(req.Context.EntityType), "image") {
		return true
	}
	if strings.Contains(strings.ToLower(req.Context.Field), "image") {
		return true
	}
	return strings.HasPrefix(req.MimeType, "image/")
}

func isImageComplete(req uploadCompleteRequest) bool {
	return imageMimeTypes[req.MimeType] || strings.Contains(strings.ToLower(req.Context.Field), "image")
}

func logUploadError(logger *logrus.Logger, err error, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id := correlationId(c); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}
