package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school-directory-backend/internal/browse"
	"school-directory-backend/internal/imagestore"
	"school-directory-backend/internal/parse"
	"school-directory-backend/internal/store"
	"school-directory-backend/internal/validate"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before file parts spill to disk.
const multipartMemory = 8 << 20

const notMultipartMessage = "Content-Type must be multipart/form-data"

// ListSchools handles GET /api/schools. The optional search and city query
// parameters narrow the newest-first listing.
func (h *Handler) ListSchools(c *gin.Context) {
	schools, err := h.store.List(c.Request.Context())
	if err != nil {
		h.storageFailure(c, err, "list", "Failed to fetch schools")
		return
	}

	q := browse.Query{Search: c.Query("search"), City: c.Query("city")}
	c.JSON(http.StatusOK, gin.H{"data": browse.Filter(schools, q)})
}

// ListCities handles GET /api/schools/cities.
func (h *Handler) ListCities(c *gin.Context) {
	schools, err := h.store.List(c.Request.Context())
	if err != nil {
		h.storageFailure(c, err, "cities", "Failed to fetch schools")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": browse.Cities(schools)})
}

// GetSchool handles GET /api/schools/:id.
func (h *Handler) GetSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	school, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		h.storageFailure(c, err, "get", "Failed to fetch school")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": school})
}

// CreateSchool handles POST /api/schools. Every field and an image are
// required; nothing is written unless all of them pass validation.
func (h *Handler) CreateSchool(c *gin.Context) {
	form, ok := h.multipartForm(c)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	in, _ := parse.SchoolForm(form.Value)
	in, err := h.validator.Strict(in)
	if err != nil {
		h.validationFailure(c, err)
		return
	}

	upload, err := readImage(form)
	if err != nil {
		h.storageFailure(c, err, "read image", "Failed to create school")
		return
	}
	if upload == nil {
		h.mediaFailure(c, imagestore.ErrMissing)
		return
	}

	ref, err := h.images.Save(c.Request.Context(), *upload)
	if err != nil {
		if imagestore.IsMediaError(err) {
			h.mediaFailure(c, err)
			return
		}
		h.storageFailure(c, err, "save image", "Failed to create school")
		return
	}

	school, err := h.store.Create(c.Request.Context(), in, ref)
	if err != nil {
		h.storageFailure(c, err, "create", "Failed to create school")
		return
	}

	h.log.WithFields(logrus.Fields{"id": school.ID, "image": ref}).Info("school created")
	c.JSON(http.StatusCreated, gin.H{"data": school})
}

// UpdateSchool handles PUT /api/schools/:id. Only the supplied fields are
// changed; an image part, when present and non-empty, replaces the stored
// reference.
func (h *Handler) UpdateSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	form, ok := h.multipartForm(c)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	_, patch := parse.SchoolForm(form.Value)
	patch, err := h.validator.Partial(patch)
	if err != nil {
		h.validationFailure(c, err)
		return
	}

	upload, err := readImage(form)
	if err != nil {
		h.storageFailure(c, err, "read image", "Failed to update school")
		return
	}

	var ref *string
	if upload != nil {
		// Avoid storing an image for a record that does not exist.
		if _, err := h.store.Get(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			h.storageFailure(c, err, "update", "Failed to update school")
			return
		}

		saved, err := h.images.Save(c.Request.Context(), *upload)
		if err != nil {
			if imagestore.IsMediaError(err) {
				h.mediaFailure(c, err)
				return
			}
			h.storageFailure(c, err, "save image", "Failed to update school")
			return
		}
		ref = &saved
	}

	school, err := h.store.Update(c.Request.Context(), id, patch, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		h.storageFailure(c, err, "update", "Failed to update school")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": school})
}

// DeleteSchool handles DELETE /api/schools/:id. The stored image, if any,
// is left in place.
func (h *Handler) DeleteSchool(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		h.storageFailure(c, err, "delete", "Failed to delete school")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// multipartForm parses the request body as multipart/form-data, bounded by
// the configured body limit.
func (h *Handler) multipartForm(c *gin.Context) (*multipart.Form, bool) {
	if !strings.HasPrefix(strings.ToLower(c.ContentType()), "multipart/form-data") {
		c.JSON(http.StatusBadRequest, gin.H{"error": notMultipartMessage})
		return nil, false
	}
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return nil, false
	}

	return c.Request.MultipartForm, true
}

// readImage returns the first "image" part, or nil when none was sent or
// the part is empty.
func readImage(form *multipart.Form) (*imagestore.Upload, error) {
	files := form.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image part: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read image part: %w", err)
	}
	return &imagestore.Upload{
		Data:     data,
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
	}, nil
}

func (h *Handler) validationFailure(c *gin.Context, err error) {
	ve, ok := validate.AsError(err)
	if !ok {
		h.storageFailure(c, err, "validate", "Failed to validate school")
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
		"formErrors":  []string{},
		"fieldErrors": ve.Fields,
	}})
}

func (h *Handler) mediaFailure(c *gin.Context, err error) {
	msg := "Invalid image"
	switch {
	case errors.Is(err, imagestore.ErrMissing):
		msg = "Image is required"
	case errors.Is(err, imagestore.ErrTooLarge):
		msg = fmt.Sprintf("Image too large (max %dMB)", h.maxUploadBytes>>20)
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// storageFailure logs err and answers with a fixed message that carries no
// internal detail.
func (h *Handler) storageFailure(c *gin.Context, err error, op, msg string) {
	h.log.WithError(err).WithField("op", op).Error("storage failure")
	c.Error(err) //nolint:errcheck
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
