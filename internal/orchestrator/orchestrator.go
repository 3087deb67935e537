package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/qrlabels/internal/document"
	"github.com/local/qrlabels/internal/imagerender"
	"github.com/local/qrlabels/internal/label"
	"github.com/local/qrlabels/internal/logger"
	"github.com/local/qrlabels/internal/metrics"
	"github.com/local/qrlabels/internal/pdfcheck"
	"github.com/local/qrlabels/internal/sequence"
	"github.com/local/qrlabels/internal/storage"
)

// ErrOutputDir is returned when the output file's directory does not exist.
var ErrOutputDir = errors.New("output directory does not exist")

// Uploader copies the finished PDF somewhere else.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string, dst storage.Location, meta map[string]string) (string, error)
}

// Verifier inspects a finished PDF that should hold the given page count.
type Verifier func(path string, pages int) (*pdfcheck.Report, error)

type Dependencies struct {
	// Uploader is created from the default AWS config on first use when nil.
	Uploader Uploader
	// Verifier defaults to pdfcheck.Verify.
	Verifier Verifier
}

type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	if deps.Verifier == nil {
		deps.Verifier = pdfcheck.Verify
	}
	return &Orchestrator{deps: deps}
}

// Request is one invocation of the generator.
type Request struct {
	StartAt  int
	NumPages int
	ExtraIDs []int
	Width    int
	Prefix   string

	FontPath  string
	PixelSize int

	OutFile string
	Verify  bool

	PreviewPath    string
	PreviewDPI     int
	PreviewQuality int

	UploadURL     string
	UploadTimeout time.Duration

	MetricsFile  string
	StaleTempAge time.Duration
}

// Summary describes a completed run.
type Summary struct {
	RunID       string
	OutFile     string
	Pages       int
	Labels      int
	ExplicitIDs int
	Bytes       int64
	Preview     string
	UploadedTo  string
	Duration    time.Duration
}

// Run generates the label sheet described by req. Preconditions are checked
// before anything is rendered; any later failure aborts the whole run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (sum *Summary, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger.WithRun(runID)

	m := metrics.NewRun()
	defer func() {
		m.Finish(err)
		if req.MetricsFile == "" {
			return
		}
		if werr := m.WriteTextfile(req.MetricsFile); werr != nil {
			log.Warn().Err(werr).Str("file", req.MetricsFile).Msg("failed to write metrics")
		}
	}()

	outFile, err := checkOutput(req.OutFile)
	if err != nil {
		return nil, err
	}
	var dst storage.Location
	if req.UploadURL != "" {
		if dst, err = storage.ParseURL(req.UploadURL); err != nil {
			return nil, err
		}
	}
	extra := toAssetIDs(req.ExtraIDs)

	if req.StaleTempAge > 0 {
		if n := document.CleanupStale(req.StaleTempAge); n > 0 {
			log.Info().Int("removed", n).Msg("removed stale label dirs")
		}
	}

	stage := time.Now()
	pages, err := sequence.Generate(req.StartAt, req.NumPages, extra)
	if err != nil {
		return nil, err
	}
	total := len(pages) * sequence.CodesPerPage
	m.ObserveIDs(len(extra), total-len(extra))
	m.ObserveStage("sequence", time.Since(stage))

	log.Info().
		Int("start_at", req.StartAt).
		Int("pages", len(pages)).
		Int("explicit_ids", len(extra)).
		Int("padding_ids", total-len(extra)).
		Str("out", outFile).
		Msg("generating label sheets")

	renderer, err := label.New(label.Options{
		Prefix:    req.Prefix,
		Width:     req.Width,
		PixelSize: req.PixelSize,
		FontPath:  req.FontPath,
	})
	if err != nil {
		return nil, err
	}

	var check document.Check
	if req.Verify {
		check = func(path string, n int) error {
			verified := time.Now()
			rep, err := o.deps.Verifier(path, n)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			m.ObserveStage("verify", time.Since(verified))
			log.Debug().Str("mime", rep.MIMEType).Int("pages", rep.Pages).Msg("output verified")
			return nil
		}
	}

	stage = time.Now()
	res, err := document.Assemble(pages, renderer, outFile, document.Meta{
		Title:   "Asset labels",
		Subject: describeRange(pages, req.Width),
		Creator: "qrlabels " + runID,
		Created: start,
	}, check)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", outFile, err)
	}
	m.ObserveStage("assemble", time.Since(stage))
	m.ObserveDocument(res.Pages, res.Labels, res.Bytes)

	sum = &Summary{
		RunID:       runID,
		OutFile:     outFile,
		Pages:       res.Pages,
		Labels:      res.Labels,
		ExplicitIDs: len(extra),
		Bytes:       res.Bytes,
	}

	if req.PreviewPath != "" {
		stage = time.Now()
		if _, err := imagerender.WritePreview(outFile, 1, req.PreviewPath, req.PreviewDPI, req.PreviewQuality); err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		m.ObserveStage("preview", time.Since(stage))
		sum.Preview = req.PreviewPath
	}

	if req.UploadURL != "" {
		stage = time.Now()
		loc, err := o.upload(ctx, outFile, dst, req, runID)
		if err != nil {
			return nil, err
		}
		m.ObserveStage("upload", time.Since(stage))
		sum.UploadedTo = loc
	}

	sum.Duration = time.Since(start)
	log.Info().
		Str("out", outFile).
		Int("pages", sum.Pages).
		Int("labels", sum.Labels).
		Int64("bytes", sum.Bytes).
		Dur("took", sum.Duration).
		Msg("label sheets written")
	return sum, nil
}

func (o *Orchestrator) upload(ctx context.Context, outFile string, dst storage.Location, req Request, runID string) (string, error) {
	if req.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.UploadTimeout)
		defer cancel()
	}
	if o.deps.Uploader == nil {
		u, err := storage.NewS3Uploader(ctx)
		if err != nil {
			return "", err
		}
		o.deps.Uploader = u
	}
	return o.deps.Uploader.UploadFile(ctx, outFile, dst, map[string]string{
		"run-id":   runID,
		"start-at": fmt.Sprint(req.StartAt),
	})
}

// checkOutput resolves the output path and requires its directory to exist.
func checkOutput(outFile string) (string, error) {
	if outFile == "" {
		return "", errors.New("output file is required")
	}
	abs, err := filepath.Abs(outFile)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrOutputDir, dir)
	}
	return abs, nil
}

func toAssetIDs(in []int) []sequence.AssetID {
	if len(in) == 0 {
		return nil
	}
	out := make([]sequence.AssetID, len(in))
	for i, v := range in {
		out[i] = sequence.AssetID(v)
	}
	return out
}

func describeRange(pages []sequence.Page, width int) string {
	ids := sequence.Flatten(pages)
	return fmt.Sprintf("%d labels, %s to %s", len(ids), ids[0].Caption(width), ids[len(ids)-1].Caption(width))
}
