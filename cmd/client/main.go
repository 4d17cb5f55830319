// Package main implements the offersync command-line client. It fetches a
// bank portal page, extracts and deduplicates its merchant offers, caches
// them locally, and pushes them to the offer store server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/offersync/offersync/internal/client/storage"
	"github.com/offersync/offersync/internal/client/watch"
	"github.com/offersync/offersync/internal/dedupe"
	"github.com/offersync/offersync/internal/extract"
	"github.com/offersync/offersync/internal/logger"
	"github.com/offersync/offersync/internal/models"
)

var (
	version   string
	buildDate string
)

// fetchDocument retrieves the page at url and parses it.
func fetchDocument(ctx context.Context, client *resty.Client, url string) (*goquery.Document, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch page: server returned %s", resp.Status())
	}
	return goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
}

// readDocument parses a locally saved page.
func readDocument(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return goquery.NewDocumentFromReader(f)
}

// extractOffers runs one full extraction pass: locate the extractor for the
// URL, scrape candidates, re-fetch once after the settle delay when the page
// needs expansion, and deduplicate the result.
func extractOffers(ctx context.Context, url, file string, settle time.Duration, zl *logger.Logger) (models.Source, []models.Candidate, []dedupe.MergeEvent, error) {
	extractor := extract.For(url, zl.Log)
	if extractor == nil {
		return models.SourceUnknown, nil, nil, fmt.Errorf("unsupported site: %s", url)
	}

	httpClient := resty.New()
	var doc *goquery.Document
	var err error
	if file != "" {
		doc, err = readDocument(file)
	} else {
		doc, err = fetchDocument(ctx, httpClient, url)
	}
	if err != nil {
		return models.SourceUnknown, nil, nil, err
	}

	// Pages that hide offers behind a "view more" control render the full
	// list only after a delay; re-fetch once it has settled. A locally saved
	// page cannot expand, so it is extracted as-is.
	if expander, ok := extractor.(extract.Expander); ok && file == "" && expander.NeedsExpansion(doc) {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return models.SourceUnknown, nil, nil, ctx.Err()
		}
		if refreshed, err := fetchDocument(ctx, httpClient, url); err == nil {
			doc = refreshed
		}
	}

	candidates, err := extractor.Extract(doc)
	if err != nil {
		return models.SourceUnknown, nil, nil, err
	}

	offers, merges := dedupe.Dedupe(candidates)
	return extractor.Source(), offers, merges, nil
}

// runExtract performs one extraction and replaces the local cache.
func runExtract(ctx context.Context, ls *storage.LocalStorage, url, file string, settle time.Duration, zl *logger.Logger) error {
	site, offers, merges, err := extractOffers(ctx, url, file, settle, zl)
	if err != nil {
		return err
	}
	ls.Replace(site, offers)
	if err := ls.Save(); err != nil {
		return fmt.Errorf("save local store: %w", err)
	}
	fmt.Printf("Extracted %d offers from %s (%d merged as duplicates)\n",
		len(offers), site, len(merges))
	return nil
}

// runSync pushes the cached offers to the server.
func runSync(ctx context.Context, ls *storage.LocalStorage, serverURL, token string, timeout time.Duration) error {
	site, offers, _ := snapshot(ls)
	if len(offers) == 0 {
		return errors.New("nothing to sync, run -cmd=extract first")
	}
	if token == "" {
		return errors.New("please provide -token")
	}

	sc := storage.NewSyncClient(serverURL, token, timeout)
	result, err := sc.Sync(ctx, site, offers)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d offers: %d new, %d already stored, %d total on server\n",
		len(offers), result.NewCount, result.Skipped, result.Total)
	return nil
}

// snapshot wraps LocalStorage.Snapshot with the offer count for convenience.
func snapshot(ls *storage.LocalStorage) (models.Source, []models.Candidate, int) {
	site, offers := ls.Snapshot()
	return site, offers, len(offers)
}

// runList prints the cached offers.
func runList(ls *storage.LocalStorage) {
	site, offers, n := snapshot(ls)
	if n == 0 {
		fmt.Println("No cached offers")
		return
	}
	fmt.Printf("%d offers from %s:\n", n, site)
	for _, o := range offers {
		line := o.Merchant
		if line == "" {
			line = o.Title
		}
		if o.Discount != "" {
			line += " | " + o.Discount
		}
		if o.ExpiryDate != "" {
			line += " | expires " + o.ExpiryDate
		}
		if o.Status != "" {
			line += " | " + o.Status
		}
		fmt.Println("  " + line)
	}
}

// runWatch re-extracts on an interval, debouncing bursts so that a slow fetch
// superseded by a newer tick is cancelled rather than racing it.
func runWatch(ls *storage.LocalStorage, url string, settle, interval, timeout time.Duration, zl *logger.Logger) {
	deb := watch.NewDebouncer(settle, timeout, func(ctx context.Context) {
		if err := runExtract(ctx, ls, url, "", settle, zl); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Println("extraction timed out")
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Println("extraction error:", err)
		}
	})
	defer deb.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Watching %s every %s (Ctrl-C to stop)\n", url, interval)
	deb.Trigger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deb.Trigger()
		case <-stop:
			fmt.Println("Bye")
			return
		}
	}
}

// main parses command-line flags and dispatches to the extract, sync, watch
// and list commands.
func main() {
	var (
		cmd       string
		logLevel  string
		url       string
		file      string
		serverURL string
		token     string
		storePath string
		settle    time.Duration
		interval  time.Duration
		timeout   time.Duration
		showVer   bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: extract | sync | watch | list")
	flag.StringVar(&logLevel, "l", "info", "log level for scrape diagnostics")
	flag.StringVar(&url, "url", "", "portal page URL to extract offers from")
	flag.StringVar(&file, "file", "", "extract from a saved HTML file instead of fetching -url")
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "offer store server base URL")
	flag.StringVar(&token, "token", "", "bearer token for the offer store server")
	flag.StringVar(&storePath, "store", "offers.json", "path to the local offer cache")
	flag.DurationVar(&settle, "settle", 2*time.Second, "wait after page expansion before re-fetching")
	flag.DurationVar(&interval, "interval", 30*time.Second, "re-extraction interval for watch")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "per-operation timeout")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("offersync Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zl := logger.New()
	if err := zl.Init(logLevel); err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}

	ls := storage.NewLocalStorage(storePath)
	if err := ls.Load(); err != nil {
		log.Fatal("failed to load local store: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch cmd {
	case "extract":
		if url == "" {
			log.Fatal("please provide -url")
		}
		if err := runExtract(ctx, ls, url, file, settle, zl); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Fatal("extraction timed out")
			}
			log.Fatal(err)
		}
	case "sync":
		if err := runSync(ctx, ls, serverURL, token, timeout); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Fatal("sync timed out")
			}
			log.Fatal(err)
		}
	case "watch":
		if url == "" {
			log.Fatal("please provide -url")
		}
		runWatch(ls, url, settle, interval, timeout, zl)
	case "list":
		runList(ls)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
