// Command classify labels local image files as Pancake or Waffle and prints
// one JSON object per file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/config"
	"github.com/anime-shed/pancake-waffle-classifier/internal/factory"
	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/internal/strategy"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

type fileResult struct {
	File   string                       `json:"file"`
	Result *models.ClassificationResult `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
}

func main() {
	modePtr := flag.String("mode", "blended", "Classification mode: heuristic or blended")
	seedPtr := flag.Uint64("seed", 0, "Seed for the tie-break coin flip (0 uses a random seed)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-mode heuristic|blended] [-seed N] FILE...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFile)

	options := analyzer.DefaultOptions().WithThresholds(cfg.Thresholds)
	if *seedPtr != 0 {
		options = options.WithRandom(analyzer.NewSeededRandom(*seedPtr))
	}
	oracle, err := factory.NewOracleFactory().CreateOracle(factory.OracleSettings{
		Type:        factory.OracleType(cfg.OracleType),
		URL:         cfg.OracleURL,
		OCRLanguage: cfg.OCRLanguage,
	})
	if err != nil {
		log.Fatalf("Failed to create oracle: %v", err)
	}
	if oracle != nil {
		options = options.WithOracle(oracle, cfg.OracleTimeout)
	}

	classifier, err := analyzer.NewClassifier(options)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	defer classifier.Close()

	classify, err := strategy.NewSelector(classifier).ForMode(*modePtr)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	failed := classifyFiles(context.Background(), os.Stdout, classifier, classify, flag.Args(), cfg.MaxRequestBodySize, cfg.MaxImageDimension)
	if failed > 0 {
		os.Exit(1)
	}
}

// classifyFiles decodes every path, classifies the decodable ones as one
// batch on the classifier's worker pool, and writes one JSON line per path
// in input order. It returns how many failed.
func classifyFiles(ctx context.Context, w io.Writer, classifier analyzer.Classifier, classify strategy.ClassificationStrategy, paths []string, maxBytes int64, maxDim int) int {
	out := make([]fileResult, len(paths))
	var rasters []*analyzer.Raster
	var slots []int
	for i, path := range paths {
		out[i].File = path
		raster, err := loadRaster(path, maxBytes, maxDim)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		rasters = append(rasters, raster)
		slots = append(slots, i)
	}

	for _, r := range classifier.ClassifyBatch(ctx, rasters, classify.Classify) {
		slot := slots[r.Index]
		if r.Err != nil {
			out[slot].Error = r.Err.Error()
			continue
		}
		result := r.Result
		out[slot].Result = &result
	}

	enc := json.NewEncoder(w)
	failed := 0
	for _, line := range out {
		if line.Error != "" {
			failed++
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("Failed to write result for %s: %v", line.File, err)
		}
	}
	return failed
}

func loadRaster(path string, maxBytes int64, maxDim int) (*analyzer.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := storage.ReadLimited(f, maxBytes)
	if err != nil {
		return nil, err
	}
	decoded, err := storage.DecodeImage(data, maxDim)
	if err != nil {
		return nil, err
	}
	return analyzer.RasterFromImage(decoded.Image)
}
