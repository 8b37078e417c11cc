// Command evaluate classifies every catalogue sample and reports accuracy.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sync"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/pancake-waffle-classifier/internal/config"
	"github.com/anime-shed/pancake-waffle-classifier/internal/container"
	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/internal/service"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// row is the outcome for one sample; Err is set when it could not be classified
type row struct {
	Sample models.Sample
	Result *models.SampleResult
	Err    error
}

type report struct {
	Rows    []row
	Correct int
	Scored  int
}

func (r report) Accuracy() float64 {
	if r.Scored == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Scored)
}

func main() {
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Samples classified concurrently")
	modePtr := flag.String("mode", "blended", "Classification mode: heuristic or blended")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFile)

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	rep, err := evaluate(context.Background(), c.Service(), *workersPtr, *modePtr)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	printReport(os.Stdout, rep)
	if rep.Scored < len(rep.Rows) {
		os.Exit(1)
	}
}

// evaluate classifies the catalogue with at most workers samples in flight.
// Per-sample failures are reported in their row.
func evaluate(ctx context.Context, svc service.ClassificationService, workers int, mode string) (report, error) {
	mode, err := validation.NormalizeMode(mode)
	if err != nil {
		return report{}, err
	}
	samples := svc.ListSamples().Samples
	rows := make([]row, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var mu sync.Mutex
	rep := report{}
	for i, sample := range samples {
		g.Go(func() error {
			resp, err := svc.ClassifySample(ctx, sample.Name, mode)
			rows[i] = row{Sample: sample, Err: err}
			if err != nil {
				return nil
			}
			rows[i].Result = &resp.Result

			mu.Lock()
			rep.Scored++
			if resp.Result.Correct {
				rep.Correct++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}
	rep.Rows = rows
	return rep, nil
}

func printReport(w io.Writer, rep report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SAMPLE\tEXPECTED\tPREDICTED\tCONFIDENCE\tORACLE\tOK")
	for _, r := range rep.Rows {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\terror: %v\n", r.Sample.Name, r.Sample.ExpectedLabel, r.Err)
			continue
		}
		mark := "no"
		if r.Result.Correct {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			r.Sample.Name, r.Result.ExpectedLabel, r.Result.Prediction, r.Result.Confidence, r.Result.OracleStatus, mark)
	}
	tw.Flush()
	fmt.Fprintf(w, "\naccuracy: %d/%d (%.1f%%)\n", rep.Correct, rep.Scored, rep.Accuracy()*100)
}
