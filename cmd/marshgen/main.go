// marshgen generates model declaration files from a YAML manifest.
//
// Usage:
//
//	marshgen -manifest models.yaml -out ./models
//	marshgen -manifest models.yaml -out ./models -watch
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/marsh/internal/gen"
)

func main() {
	var (
		manifest = flag.String("manifest", "models.yaml", "path to the model manifest")
		out      = flag.String("out", ".", "output directory for generated files")
		workers  = flag.Int("workers", 0, "parallel file writers (0 = GOMAXPROCS)")
		watch    = flag.Bool("watch", false, "regenerate when the manifest changes")
	)
	flag.Parse()
	logger := log.New(os.Stderr, "marshgen: ", 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generate(ctx, *manifest, *out, *workers); err != nil {
		logger.Fatal(err)
	}
	logger.Printf("generated models from %s into %s", *manifest, *out)

	if !*watch {
		return
	}
	if err := watchManifest(ctx, logger, *manifest, *out, *workers); err != nil {
		logger.Fatal(err)
	}
}

func generate(ctx context.Context, manifest, out string, workers int) error {
	m, err := gen.ReadManifest(manifest)
	if err != nil {
		return err
	}
	return gen.NewGenerator(m, out).WithWorkers(workers).Generate(ctx)
}

// watchManifest regenerates on every write to the manifest until the
// context is canceled. Editors often replace files instead of writing
// in place, so the path is re-added after remove and rename events.
func watchManifest(ctx context.Context, logger *log.Logger, manifest, out string, workers int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(manifest); err != nil {
		return err
	}
	logger.Printf("watching %s", manifest)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch error: %v", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(manifest); err != nil {
					return err
				}
			} else if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := generate(ctx, manifest, out, workers); err != nil {
				logger.Printf("regenerate: %v", err)
				continue
			}
			logger.Printf("regenerated models from %s", manifest)
		}
	}
}
