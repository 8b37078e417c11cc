package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// DefaultSamples is the bundled catalogue of five pancakes and five waffles
func DefaultSamples() []models.Sample {
	return []models.Sample{
		{Name: "pancake1", FileName: "fluffy-pancakes-feature.jpg", ExpectedLabel: models.LabelPancake},
		{Name: "pancake2", FileName: "Pancake-Recipe-1.jpg", ExpectedLabel: models.LabelPancake},
		{Name: "pancake3", FileName: "pancakes1.jpeg", ExpectedLabel: models.LabelPancake},
		{Name: "pancake4", FileName: "pancakes2.jpeg", ExpectedLabel: models.LabelPancake},
		{Name: "pancake5", FileName: "pancakes3.jpg", ExpectedLabel: models.LabelPancake},
		{Name: "waffle1", FileName: "chocolate-chip-waffles-featured.jpg", ExpectedLabel: models.LabelWaffle},
		{Name: "waffle2", FileName: "waffle.jpg", ExpectedLabel: models.LabelWaffle},
		{Name: "waffle3", FileName: "waffles1.jpg", ExpectedLabel: models.LabelWaffle},
		{Name: "waffle4", FileName: "waffles2.jpg", ExpectedLabel: models.LabelWaffle},
		{Name: "waffle5", FileName: "Brownie-Waffles-35.jpg", ExpectedLabel: models.LabelWaffle},
	}
}

// sampleRepository implements SampleRepository on top of a SampleStore
type sampleRepository struct {
	store    storage.SampleStore
	samples  map[string]models.Sample
	order    []string
	maxBytes int64
	maxDim   int
}

// NewSampleRepository serves catalogue entries from store
func NewSampleRepository(store storage.SampleStore, samples []models.Sample, maxBytes int64, maxDim int) SampleRepository {
	r := &sampleRepository{
		store:    store,
		samples:  make(map[string]models.Sample, len(samples)),
		maxBytes: maxBytes,
		maxDim:   maxDim,
	}
	for _, s := range samples {
		key := strings.ToLower(s.Name)
		if _, dup := r.samples[key]; !dup {
			r.order = append(r.order, key)
		}
		r.samples[key] = s
	}
	sort.Strings(r.order)
	return r
}

func (r *sampleRepository) List() []models.Sample {
	list := make([]models.Sample, 0, len(r.order))
	for _, key := range r.order {
		list = append(list, r.samples[key])
	}
	return list
}

func (r *sampleRepository) Get(name string) (models.Sample, error) {
	s, ok := r.samples[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Sample{}, fmt.Errorf("%w: %q", ErrSampleNotFound, name)
	}
	return s, nil
}

func (r *sampleRepository) Load(ctx context.Context, name string) (models.Sample, *storage.DecodedImage, error) {
	sample, err := r.Get(name)
	if err != nil {
		return sample, nil, err
	}

	rc, err := r.store.Open(ctx, sample.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return sample, nil, fmt.Errorf("%w: %s missing from %s store", ErrSampleUnavailable, sample.FileName, r.store.Name())
		}
		return sample, nil, err
	}
	defer rc.Close()

	data, err := storage.ReadLimited(rc, r.maxBytes)
	if err != nil {
		return sample, nil, err
	}
	decoded, err := storage.DecodeImage(data, r.maxDim)
	if err != nil {
		return sample, nil, err
	}
	return sample, decoded, nil
}
