package controllers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type UploadController struct {
	Storage storage.Storage
	MaxSize int64
}

func NewUploadController(store storage.Storage, maxSize int64) *UploadController {
	return &UploadController{Storage: store, MaxSize: maxSize}
}

// UploadImage stores the multipart "image" field and returns its URL.
func (uc *UploadController) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.MaxSize+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		utils.RespondError(c, utils.NewBadRequestError("image file is required"))
		return
	}
	if fh.Size > uc.MaxSize {
		utils.RespondError(c, utils.NewBadRequestError("image exceeds the maximum upload size"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.RespondError(c, utils.NewInternalError(err))
		return
	}
	defer f.Close()

	img, err := storage.PrepareImage(f, uc.MaxSize)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		utils.RespondError(c, utils.NewBadRequestError("image exceeds the maximum upload size"))
		return
	case errors.Is(err, storage.ErrUnsupportedImage):
		utils.RespondError(c, utils.NewBadRequestError("only JPEG, PNG, GIF and WEBP images are accepted"))
		return
	case err != nil:
		utils.RespondError(c, utils.NewInternalError(err))
		return
	}

	url, err := storage.Save(c.Request.Context(), uc.Storage, img)
	if err != nil {
		utils.RespondError(c, utils.NewInternalError(err))
		return
	}
	utils.Log.WithFields(map[string]interface{}{"key": img.Key, "size": len(img.Data)}).Info("Image uploaded")
	utils.RespondJSON(c, http.StatusCreated, "Image uploaded", gin.H{"url": url, "key": img.Key})
}

func (uc *UploadController) DeleteImage(c *gin.Context) {
	key := c.Param("key")
	if !storage.ValidKey(key) {
		utils.RespondError(c, utils.NewBadRequestError("invalid image key"))
		return
	}
	if err := uc.Storage.Delete(c.Request.Context(), key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			utils.RespondError(c, utils.NewNotFoundError("Image not found"))
			return
		}
		utils.RespondError(c, utils.NewInternalError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Image deleted", gin.H{"key": key})
}
