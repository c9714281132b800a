package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const certificateSuffixLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueSlug turns title into a URL slug that no other course uses.
// Collisions get a numeric suffix: "intro-to-go", "intro-to-go-2", ...
// exclude is the course being renamed, if any.
func GenerateUniqueSlug(tx *gorm.DB, title string, exclude uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "course"
	}

	candidate := base
	for n := 2; ; n++ {
		var count int64
		q := tx.Model(&models.Course{}).Where("slug = ?", candidate)
		if exclude != uuid.Nil {
			q = q.Where("id <> ?", exclude)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// GenerateCertificateNumber returns an unused number of the form
// MNT-YYYYMMDD-XXXXXXXX.
func GenerateCertificateNumber(tx *gorm.DB, issuedAt time.Time) (string, error) {
	seededRand := mrand.New(mrand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, certificateSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		number := fmt.Sprintf("MNT-%s-%s", issuedAt.Format("20060102"), string(b))

		var count int64
		if err := tx.Model(&models.Certificate{}).Where("certificate_number = ?", number).Count(&count).Error; err != nil {
			return "", errors.Wrap(err, "checking certificate number")
		}
		if count == 0 {
			return number, nil
		}
	}
}

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	return hex.EncodeToString(b), nil
}
