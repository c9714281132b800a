package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueSlug(t *testing.T) {
	db := testutil.OpenDB(t)

	slug, err := GenerateUniqueSlug(db, "Intro to Go: Concurrency!", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go-concurrency", slug)

	existing := models.Course{MentorID: uuid.New(), Title: "Intro", Slug: "intro", Status: models.CourseDraft}
	require.NoError(t, db.Create(&existing).Error)
	require.NoError(t, db.Create(&models.Course{MentorID: uuid.New(), Title: "Intro", Slug: "intro-2", Status: models.CourseDraft}).Error)

	slug, err = GenerateUniqueSlug(db, "Intro", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "intro-3", slug)

	slug, err = GenerateUniqueSlug(db, "Intro", existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "intro", slug, "a course keeps its own slug")

	slug, err = GenerateUniqueSlug(db, "!!!", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "course", slug)
}

func TestGenerateCertificateNumber(t *testing.T) {
	db := testutil.OpenDB(t)
	issued := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	a, err := GenerateCertificateNumber(db, issued)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^MNT-20260504-[A-Z0-9]{8}$`), a)

	b, err := GenerateCertificateNumber(db, issued)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)

	b, err := RandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
