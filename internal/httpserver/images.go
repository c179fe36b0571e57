package httpserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"homegoods/internal/domain"
	imagesvc "homegoods/internal/service/image"

	"github.com/gin-gonic/gin"
)

type reorderRequest struct {
	ImageIDs []string `json:"imageIds"`
}

type altTextRequest struct {
	AltText string `json:"alt"`
}

func (h *handlers) listImages(c *gin.Context) {
	set, err := h.deps.ImageSvc.List(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": set})
}

func (h *handlers) uploadImage(c *gin.Context) {
	uploads, err := h.readUploads(c, "image")
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(uploads) != 1 {
		h.fail(c, fmt.Errorf("%w: exactly one image expected", domain.ErrInvalidArgument))
		return
	}
	added, err := h.deps.ImageSvc.AppendBatch(c.Request.Context(), c.Param("productId"), uploads)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added[0])
}

func (h *handlers) uploadImages(c *gin.Context) {
	uploads, err := h.readUploads(c, "images")
	if err != nil {
		h.fail(c, err)
		return
	}
	added, err := h.deps.ImageSvc.AppendBatch(c.Request.Context(), c.Param("productId"), uploads)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": added})
}

// readUploads collects the files of one multipart field. The n-th "alt"
// value belongs to the n-th file.
func (h *handlers) readUploads(c *gin.Context, field string) ([]imagesvc.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: multipart form expected", domain.ErrInvalidArgument)
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in field %q", domain.ErrInvalidArgument, field)
	}
	if len(files) > h.opts.UploadMaxBatch {
		return nil, fmt.Errorf("%w: at most %d images per upload", domain.ErrInvalidArgument, h.opts.UploadMaxBatch)
	}
	alts := form.Value["alt"]

	uploads := make([]imagesvc.Upload, 0, len(files))
	for i, fh := range files {
		data, err := h.readFile(fh)
		if err != nil {
			return nil, err
		}
		u := imagesvc.Upload{Data: data}
		if i < len(alts) {
			u.AltText = alts[i]
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (h *handlers) readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.opts.UploadMaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidArgument, fh.Filename, h.opts.UploadMaxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable file %s", domain.ErrInvalidArgument, fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.opts.UploadMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable file %s", domain.ErrInvalidArgument, fh.Filename)
	}
	return data, nil
}

func (h *handlers) reorderImages(c *gin.Context) {
	var req reorderRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	set, err := h.deps.ImageSvc.Reorder(c.Request.Context(), c.Param("productId"), req.ImageIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": set})
}

func (h *handlers) setPrimaryImage(c *gin.Context) {
	set, err := h.deps.ImageSvc.SetPrimary(c.Request.Context(), c.Param("productId"), c.Param("imageId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": set})
}

func (h *handlers) updateImage(c *gin.Context) {
	var req altTextRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	img, err := h.deps.ImageSvc.UpdateAltText(c.Request.Context(), c.Param("imageId"), req.AltText)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

func (h *handlers) deleteImage(c *gin.Context) {
	if err := h.deps.ImageSvc.Remove(c.Request.Context(), c.Param("imageId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
