package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// UploadService stores band images and documents. Files land on disk under
// the storage dir with uuid names; the database keeps the metadata.
type UploadService struct {
	db  *gorm.DB
	cfg *config.StorageConfig
	log *ActivityLogService
}

func NewUploadService(db *gorm.DB, cfg *config.StorageConfig, log *ActivityLogService) *UploadService {
	return &UploadService{db: db, cfg: cfg, log: log}
}

// maxUploadBytes returns the configured upload cap.
func (s *UploadService) maxUploadBytes() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = 20
	}
	return mb << 20
}

// saveFile writes the multipart file to disk under a fresh uuid name and
// returns the stored name.
func (s *UploadService) saveFile(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxUploadBytes() {
		return "", response.NewValidation(fmt.Sprintf("file exceeds the %dMB limit", s.cfg.MaxUploadMB))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	storedName := uuid.NewString() + ext

	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.cfg.Dir, storedName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return storedName, nil
}

// removeFile deletes the stored file, ignoring a missing one.
func (s *UploadService) removeFile(storedName string) {
	if storedName == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.cfg.Dir, storedName))
}

// FilePath resolves a stored name to its on-disk path.
func (s *UploadService) FilePath(storedName string) string {
	return filepath.Join(s.cfg.Dir, storedName)
}

// SaveImage stores an uploaded image for the band.
func (s *UploadService) SaveImage(bandID uint, actor *models.Member, file *multipart.FileHeader, title, description string) (*models.BandImage, error) {
	contentType := file.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return nil, response.NewValidation("unsupported image type")
	}

	storedName, err := s.saveFile(file)
	if err != nil {
		return nil, err
	}

	image := &models.BandImage{
		BandID:           bandID,
		UploaderMemberID: actor.ID,
		Title:            title,
		Description:      description,
		FileName:         file.Filename,
		StoredName:       storedName,
		ContentType:      contentType,
		SizeBytes:        file.Size,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(image).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityImage, image.ID, image.FileName, "uploaded", nil)
	})
	if err != nil {
		s.removeFile(storedName)
		return nil, err
	}

	return image, nil
}

// ListImages returns a band's images, newest first.
func (s *UploadService) ListImages(bandID uint) ([]models.BandImage, error) {
	var images []models.BandImage
	if err := s.db.Where("band_id = ?", bandID).Order("created_at DESC").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// GetImage returns one image record.
func (s *UploadService) GetImage(bandID, imageID uint) (*models.BandImage, error) {
	var image models.BandImage
	if err := s.db.Where("id = ? AND band_id = ?", imageID, bandID).First(&image).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("image not found")
		}
		return nil, err
	}
	return &image, nil
}

// DeleteImage removes an image. Uploader or captain.
func (s *UploadService) DeleteImage(bandID uint, actor *models.Member, imageID uint) error {
	image, err := s.GetImage(bandID, imageID)
	if err != nil {
		return err
	}

	if image.UploaderMemberID != actor.ID && !actor.IsCaptain() {
		return response.NewForbidden("only the uploader or a captain can delete this image")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(image).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityImage, image.ID, image.FileName, "deleted", nil)
	})
	if err != nil {
		return err
	}

	s.removeFile(image.StoredName)
	return nil
}

// SaveDocument stores an uploaded document for the band.
func (s *UploadService) SaveDocument(bandID uint, actor *models.Member, file *multipart.FileHeader, title, description string) (*models.BandDocument, error) {
	if title == "" {
		title = file.Filename
	}

	storedName, err := s.saveFile(file)
	if err != nil {
		return nil, err
	}

	doc := &models.BandDocument{
		BandID:           bandID,
		UploaderMemberID: actor.ID,
		Title:            title,
		Description:      description,
		FileName:         file.Filename,
		StoredName:       storedName,
		ContentType:      file.Header.Get("Content-Type"),
		SizeBytes:        file.Size,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityDocument, doc.ID, doc.Title, "uploaded", nil)
	})
	if err != nil {
		s.removeFile(storedName)
		return nil, err
	}

	return doc, nil
}

// ListDocuments returns a band's documents, newest first.
func (s *UploadService) ListDocuments(bandID uint) ([]models.BandDocument, error) {
	var docs []models.BandDocument
	if err := s.db.Where("band_id = ?", bandID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument returns one document record.
func (s *UploadService) GetDocument(bandID, docID uint) (*models.BandDocument, error) {
	var doc models.BandDocument
	if err := s.db.Where("id = ? AND band_id = ?", docID, bandID).First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("document not found")
		}
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document. Uploader or captain.
func (s *UploadService) DeleteDocument(bandID uint, actor *models.Member, docID uint) error {
	doc, err := s.GetDocument(bandID, docID)
	if err != nil {
		return err
	}

	if doc.UploaderMemberID != actor.ID && !actor.IsCaptain() {
		return response.NewForbidden("only the uploader or a captain can delete this document")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(doc).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityDocument, doc.ID, doc.Title, "deleted", nil)
	})
	if err != nil {
		return err
	}

	s.removeFile(doc.StoredName)
	return nil
}
