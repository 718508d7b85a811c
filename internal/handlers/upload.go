package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	bands   *services.BandService
	uploads *services.UploadService
}

func NewUploadHandler(bands *services.BandService, uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{bands: bands, uploads: uploads}
}

// UploadImage stores a band image
// POST /api/bands/:bandId/images (multipart field "image")
func (h *UploadHandler) UploadImage(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}

	image, err := h.uploads.SaveImage(bandID, actor, file, c.PostForm("title"), c.PostForm("description"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, image)
}

// ListImages lists a band's images
// GET /api/bands/:bandId/images
func (h *UploadHandler) ListImages(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	images, err := h.uploads.ListImages(bandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, images)
}

// DownloadImage streams the image file
// GET /api/bands/:bandId/images/:imageId
func (h *UploadHandler) DownloadImage(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	imageID, ok := paramUint(c, "imageId")
	if !ok {
		response.BadRequest(c, "invalid image id")
		return
	}

	image, err := h.uploads.GetImage(bandID, imageID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", image.ContentType)
	c.File(h.uploads.FilePath(image.StoredName))
}

// DeleteImage removes an image; uploader or captain
// DELETE /api/bands/:bandId/images/:imageId
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	imageID, ok := paramUint(c, "imageId")
	if !ok {
		response.BadRequest(c, "invalid image id")
		return
	}

	if err := h.uploads.DeleteImage(bandID, actor, imageID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// UploadDocument stores a band document
// POST /api/bands/:bandId/documents (multipart field "document")
func (h *UploadHandler) UploadDocument(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		response.BadRequest(c, "document file is required")
		return
	}

	doc, err := h.uploads.SaveDocument(bandID, actor, file, c.PostForm("title"), c.PostForm("description"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// ListDocuments lists a band's documents
// GET /api/bands/:bandId/documents
func (h *UploadHandler) ListDocuments(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	docs, err := h.uploads.ListDocuments(bandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, docs)
}

// DownloadDocument streams the document file as an attachment
// GET /api/bands/:bandId/documents/:documentId
func (h *UploadHandler) DownloadDocument(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	docID, ok := paramUint(c, "documentId")
	if !ok {
		response.BadRequest(c, "invalid document id")
		return
	}

	doc, err := h.uploads.GetDocument(bandID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(h.uploads.FilePath(doc.StoredName), doc.FileName)
}

// DeleteDocument removes a document; uploader or captain
// DELETE /api/bands/:bandId/documents/:documentId
func (h *UploadHandler) DeleteDocument(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	docID, ok := paramUint(c, "documentId")
	if !ok {
		response.BadRequest(c, "invalid document id")
		return
	}

	if err := h.uploads.DeleteDocument(bandID, actor, docID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
