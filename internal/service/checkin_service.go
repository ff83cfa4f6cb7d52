package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/repository"
	"fitarc/backend/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCheckinNotFound    = errors.New("check-in not found")
	ErrCheckinNotOwned    = errors.New("check-in does not belong to this user")
	ErrInvalidContentType = errors.New("invalid or missing image content type")
	ErrUploadURLError     = errors.New("failed to generate upload URL")
	ErrDownloadURLError   = errors.New("failed to generate download URL")
)

// CheckinUploadResponse returns the presigned URL plus the object key the
// client must report back when confirming.
type CheckinUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// CheckinDetails is a check-in enriched with a temporary photo URL.
type CheckinDetails struct {
	domain.Checkin
	PhotoURL string `json:"photoUrl,omitempty"`
}

// --- Service Interface ---

type CheckinService interface {
	// RequestUploadURL generates a presigned PUT URL for a progress photo.
	RequestUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*CheckinUploadResponse, error)
	// ConfirmCheckin records metadata after the client uploaded the photo.
	ConfirmCheckin(ctx context.Context, userID primitive.ObjectID, date time.Time, objectKey, fileName, contentType string, size int64, weight *float64, notes string) (*domain.Checkin, error)
	// ListCheckins returns a user's check-ins in a date range with download URLs.
	ListCheckins(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]CheckinDetails, error)
}

// --- Service Implementation ---

type checkinService struct {
	checkinRepo repository.CheckinRepository
	fileStorage storage.FileStorage
}

// NewCheckinService creates a new instance of checkinService.
func NewCheckinService(checkinRepo repository.CheckinRepository, fileStorage storage.FileStorage) CheckinService {
	return &checkinService{
		checkinRepo: checkinRepo,
		fileStorage: fileStorage,
	}
}

func (s *checkinService) RequestUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*CheckinUploadResponse, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidContentType
	}

	// Unique object key under the user's prefix.
	uniqueID := uuid.NewString()
	fileExtension := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("checkins", userID.Hex(), fmt.Sprintf("%s.%s", uniqueID, fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &CheckinUploadResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}

func (s *checkinService) ConfirmCheckin(ctx context.Context, userID primitive.ObjectID, date time.Time, objectKey, fileName, contentType string, size int64, weight *float64, notes string) (*domain.Checkin, error) {
	if userID == primitive.NilObjectID || objectKey == "" {
		return nil, errors.New("user ID and object key are required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	checkin := &domain.Checkin{
		UserID:      userID,
		Date:        engine.DayKey(date),
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		Weight:      weight,
		Notes:       notes,
	}
	checkinID, err := s.checkinRepo.Create(ctx, checkin)
	if err != nil {
		return nil, err
	}
	checkin.ID = checkinID
	return checkin, nil
}

func (s *checkinService) ListCheckins(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]CheckinDetails, error) {
	checkins, err := s.checkinRepo.GetByUserAndRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	details := make([]CheckinDetails, 0, len(checkins))
	for _, c := range checkins {
		d := CheckinDetails{Checkin: c}
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, c.S3ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			// A URL failure should not hide the check-in itself.
			details = append(details, d)
			continue
		}
		d.PhotoURL = url
		details = append(details, d)
	}
	return details, nil
}
