package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkin stores metadata about a progress photo uploaded by a user.
// The actual image resides in S3; only the object key is kept here.
type Checkin struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Date        string             `bson:"date" json:"date"`       // "2006-01-02" day the photo was taken for
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`   // internal use only
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"` // e.g., "image/jpeg"
	Size        int64              `bson:"size" json:"size"`
	Weight      *float64           `bson:"weight,omitempty" json:"weight,omitempty"` // optional bodyweight at check-in
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
