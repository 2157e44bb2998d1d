package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/storage"
)

// Разрешённые типы вложений: изображения и видео для UGC-контента плюс PDF.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"application/pdf": true,
}

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
}

// MediaHandler — загрузка и выдача вложений (материалы работ, доказательства в спорах).
type MediaHandler struct {
	files   *repository.MediaRepository
	storage *storage.MediaStorage
}

// NewMediaHandler создаёт хэндлер вложений.
func NewMediaHandler(files *repository.MediaRepository, st *storage.MediaStorage) *MediaHandler {
	return &MediaHandler{files: files, storage: st}
}

// Upload обрабатывает POST /media — multipart-загрузку одного файла.
func (h *MediaHandler) Upload(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.FailValidation(c, "файл не передан")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	expectedMime, ok := allowedExtensions[ext]
	if !ok {
		response.FailValidation(c, fmt.Sprintf("расширение %s не поддерживается", ext))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, apperror.New(apperror.ErrCodeInternal, "не удалось прочитать файл"))
		return
	}
	defer f.Close()

	// Проверяем реальный тип по магическим байтам, а не по расширению.
	head := make([]byte, 261)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		response.FailValidation(c, "не удалось определить тип файла")
		return
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		response.FailValidation(c, "не удалось определить тип файла")
		return
	}
	if !allowedMimeTypes[kind.MIME.Value] {
		response.FailValidation(c, fmt.Sprintf("тип файла %s не поддерживается", kind.MIME.Value))
		return
	}
	if kind.MIME.Value != expectedMime {
		response.FailValidation(c, "расширение файла не соответствует его содержимому")
		return
	}

	if _, err := f.Seek(0, 0); err != nil {
		response.Fail(c, apperror.New(apperror.ErrCodeInternal, "не удалось прочитать файл"))
		return
	}

	relPath, size, err := h.storage.Save(c.Request.Context(), actor.ID, fileHeader.Filename, f)
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	created, err := h.files.Create(c.Request.Context(), &models.MediaFile{
		OwnerID:     actor.ID,
		FileName:    fileHeader.Filename,
		MimeType:    kind.MIME.Value,
		SizeBytes:   size,
		StoragePath: relPath,
		URL:         "/media/files/" + relPath,
	})
	if err != nil {
		_ = h.storage.Delete(c.Request.Context(), relPath)
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusCreated, created)
}

// ListMine обрабатывает GET /media — файлы текущего пользователя.
func (h *MediaHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	files, err := h.files.ListByOwner(c.Request.Context(), actor.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, files)
}

// Delete обрабатывает DELETE /media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	file, err := h.files.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, apperror.New(apperror.ErrCodeNotFound, "файл не найден"))
		return
	}
	if file.OwnerID != actor.ID && !actor.IsAdmin() {
		response.Fail(c, apperror.ErrForbidden)
		return
	}

	if err := h.files.Delete(c.Request.Context(), id, file.OwnerID); err != nil {
		response.Fail(c, apperror.New(apperror.ErrCodeNotFound, "файл не найден"))
		return
	}
	_ = h.storage.Delete(c.Request.Context(), file.StoragePath)

	c.Status(http.StatusNoContent)
}
