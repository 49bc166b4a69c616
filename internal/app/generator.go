package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"dfc-go/internal/dfc"
)

// generatorExtensions are picked at random for generated files.
var generatorExtensions = []string{"txt", "pdf", "jpg", "png", "mp4", "mp3", "doc", "zip", "apk"}

const (
	minGeneratedKiB = 1
	maxGeneratedKiB = 100
	writeBufferSize = 8192
)

// GenerateReport summarizes a Generate run.
type GenerateReport struct {
	Requested int
	Succeeded int64
	Failed    int64
	Bytes     int64
	Elapsed   time.Duration
}

func (r *GenerateReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d files\n", r.Requested)
	fmt.Fprintf(&b, "Success: %d\n", r.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", r.Failed)
	fmt.Fprintf(&b, "Written: %d bytes\n", r.Bytes)
	fmt.Fprintf(&b, "Time: %.2fs\n", r.Elapsed.Seconds())
	fmt.Fprintf(&b, "Sizes: %d-%d KiB\n", minGeneratedKiB, maxGeneratedKiB)
	fmt.Fprintf(&b, "Extensions: %s", strings.Join(generatorExtensions, ", "))
	return b.String()
}

// Generate creates count files of random size and extension in the
// directory at location, at most cfg.Generator.Concurrency at a time.
// Individual failures are logged and counted; the report is returned even
// when some files failed.
func (a *DFCApp) Generate(ctx context.Context, location string, count int) (*GenerateReport, error) {
	dir, err := a.Open(ctx, location)
	if err != nil {
		return nil, a.op.Record(location, err)
	}
	if !dir.IsDirectory() {
		return nil, a.op.Record(location, fmt.Errorf("%w: %s", dfc.ErrNotDirectory, location))
	}

	g := &generator{
		resolver:    a.resolver,
		logger:      a.logger,
		concurrency: a.cfg.Generator.Concurrency,
	}
	report := g.run(ctx, dir, count)
	if report.Failed > 0 {
		return report, a.op.Record(location, fmt.Errorf("%d of %d files failed", report.Failed, count))
	}
	return report, a.op.Record(location, nil)
}

type generator struct {
	resolver    *dfc.ContentResolver
	logger      dfc.Logger
	concurrency int
}

func (g *generator) run(ctx context.Context, dir dfc.Document, count int) *GenerateReport {
	start := time.Now()
	var succeeded, failed, written atomic.Int64

	var eg errgroup.Group
	if g.concurrency > 0 {
		eg.SetLimit(g.concurrency)
	}
	for i := 1; i <= count; i++ {
		eg.Go(func() error {
			n, err := g.generateOne(ctx, dir, i)
			if err != nil {
				g.logger.Error("generating file", "op", "generate", "index", i, "error", err)
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			written.Add(n)
			return nil
		})
	}
	eg.Wait()

	return &GenerateReport{
		Requested: count,
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		Bytes:     written.Load(),
		Elapsed:   time.Since(start),
	}
}

// generateOne creates file index and fills it with random bytes.
func (g *generator) generateOne(ctx context.Context, dir dfc.Document, index int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ext := generatorExtensions[rand.IntN(len(generatorExtensions))]
	mimeType := dfc.MimeTypeFromExtension(ext)
	name := fmt.Sprintf("test_file_%d", index)
	if _, raw := dir.(*dfc.RawDocument); !raw {
		// Raw directories append the extension registered for mimeType.
		name += "." + ext
	}

	file, err := dfc.CreateFile(ctx, dir, mimeType, name)
	if err != nil {
		return 0, err
	}
	if file == nil {
		return 0, fmt.Errorf("creating %s: %w", name, ErrOperationFailed)
	}

	size := int64(minGeneratedKiB+rand.IntN(maxGeneratedKiB-minGeneratedKiB+1)) * 1024
	return g.writeRandom(ctx, file.URI(), size)
}

func (g *generator) writeRandom(ctx context.Context, u dfc.URI, size int64) (int64, error) {
	out, err := g.resolver.OpenOutputStream(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", u, err)
	}

	buf := make([]byte, writeBufferSize)
	var written int64
	for written < size {
		chunk := buf[:min(int64(len(buf)), size-written)]
		for i := range chunk {
			chunk[i] = byte(rand.UintN(256))
		}
		n, err := out.Write(chunk)
		written += int64(n)
		if err != nil {
			out.Close()
			return written, fmt.Errorf("writing %s: %w", u, err)
		}
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("closing %s: %w", u, err)
	}
	return written, nil
}
