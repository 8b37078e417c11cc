package repository

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSamplePNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(5, 5, color.NRGBA{0, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func newTestRepository(t *testing.T) (SampleRepository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	return NewSampleRepository(store, DefaultSamples(), 1<<20, 32), dir
}

func TestDefaultSamples(t *testing.T) {
	samples := DefaultSamples()
	require.Len(t, samples, 10)

	counts := map[string]int{}
	for _, s := range samples {
		counts[s.ExpectedLabel]++
	}
	assert.Equal(t, 5, counts[models.LabelPancake])
	assert.Equal(t, 5, counts[models.LabelWaffle])
}

func TestSampleRepository_ListAndGet(t *testing.T) {
	repo, _ := newTestRepository(t)

	list := repo.List()
	require.Len(t, list, 10)
	assert.Equal(t, "pancake1", list[0].Name)
	assert.Equal(t, "waffle5", list[9].Name)

	s, err := repo.Get(" Waffle2 ")
	require.NoError(t, err)
	assert.Equal(t, "waffle.jpg", s.FileName)
	assert.Equal(t, models.LabelWaffle, s.ExpectedLabel)

	_, err = repo.Get("crepe1")
	assert.ErrorIs(t, err, ErrSampleNotFound)
}

func TestSampleRepository_Load(t *testing.T) {
	repo, dir := newTestRepository(t)
	writeSamplePNG(t, dir, "waffle.jpg")

	sample, decoded, err := repo.Load(context.Background(), "waffle2")
	require.NoError(t, err)
	assert.Equal(t, "waffle2", sample.Name)
	assert.Equal(t, "png", decoded.Format)
	assert.Equal(t, 40, decoded.OriginalWidth)
	assert.Equal(t, 32, decoded.Image.Bounds().Dx(), "scaled to the max dimension")

	_, _, err = repo.Load(context.Background(), "pancake1")
	assert.ErrorIs(t, err, ErrSampleUnavailable)

	_, _, err = repo.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSampleNotFound)
}

func TestSampleRepository_LoadCorrupt(t *testing.T) {
	repo, dir := newTestRepository(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waffles1.jpg"), []byte("not an image"), 0o644))

	_, _, err := repo.Load(context.Background(), "waffle3")
	assert.ErrorIs(t, err, storage.ErrDecode)
}
