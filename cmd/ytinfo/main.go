package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ytget/ytinfo"
	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/internal/config"
	"github.com/ytget/ytinfo/internal/jsvm"
	"github.com/ytget/ytinfo/internal/logger"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/cipher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// result is one line of batch output.
type result struct {
	URL      string          `json:"url"`
	Resource *types.Resource `json:"resource,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 2
	}
	if l, err := logger.CreateLoggerFromConfig(cfg.Logging); err == nil {
		logger.SetGlobalLogger(l)
	}

	fs := flag.NewFlagSet("ytinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagTimeout     = fs.Duration("timeout", cfg.HTTP.Timeout, "HTTP timeout per request (e.g., 30s, 1m)")
		flagUA          = fs.String("ua", cfg.HTTP.UserAgent, "Override User-Agent header")
		flagProxy       = fs.String("proxy", cfg.HTTP.ProxyURL, "Proxy URL (http/https/socks5)")
		flagVerifyTLS   = fs.Bool("verify-tls", cfg.HTTP.VerifyTLS, "Verify TLS certificates of outbound requests")
		flagJSEngine    = fs.String("js-engine", cfg.Engine.JSEngine, "Evaluator for unknown cipher helpers: goja, otto or none")
		flagPrefetch    = fs.Bool("prefetch", cfg.Engine.Prefetch, "Fetch the watch page alongside the metadata")
		flagConcurrency = fs.Int("concurrency", 1, "Number of URLs resolved in parallel")
		flagVideoMime   = fs.String("video-mime", cfg.Engine.VideoMime, "Container kept among muxed formats")
		flagAudioMime   = fs.String("audio-mime", cfg.Engine.AudioMime, "Container kept among audio formats")
		flagInput       = fs.String("input", "", "File with one URL per line ('-' reads stdin)")
		flagPretty      = fs.Bool("pretty", false, "Indent JSON output")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytinfo [flags] <video_url>...\n")
		fmt.Fprintln(stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	urls := fs.Args()
	if *flagInput != "" {
		more, err := readURLs(*flagInput, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read input: %v\n", err)
			return 2
		}
		urls = append(urls, more...)
	}
	if len(urls) == 0 {
		fs.Usage()
		return 2
	}

	ev, err := jsvm.New(*flagJSEngine, cfg.Engine.JSTimeout)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid -js-engine: %v\n", err)
		return 2
	}

	c := client.NewWith(client.Config{
		Timeout:   *flagTimeout,
		UserAgent: *flagUA,
		ProxyURL:  *flagProxy,
		VerifyTLS: *flagVerifyTLS,
	})
	r := ytinfo.New().
		WithClient(c).
		WithBaseURL(cfg.Engine.BaseURL).
		WithMimeTypes(*flagVideoMime, *flagAudioMime).
		WithEvaluator(ev).
		WithProgramCache(cipher.NewProgramCache(cfg.Engine.CacheTTL)).
		WithPrefetch(*flagPrefetch)

	results := resolveAll(context.Background(), r, urls, *flagConcurrency)

	enc := json.NewEncoder(stdout)
	if *flagPretty {
		enc.SetIndent("", "  ")
	}
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	if len(results) == 1 {
		if failed == 1 {
			fmt.Fprintf(stderr, "Error: %s\n", results[0].Error)
			return 1
		}
		_ = enc.Encode(results[0].Resource)
		return 0
	}
	_ = enc.Encode(results)
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d URLs failed\n", failed, len(results))
		return 1
	}
	return 0
}

// resolveAll resolves urls with a fixed pool of workers and returns results
// in input order.
func resolveAll(ctx context.Context, h ytinfo.Handler, urls []string, concurrency int) []result {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(urls) {
		concurrency = len(urls)
	}
	results := make([]result, len(urls))
	jobs := make(chan int, len(urls))

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				start := time.Now()
				res, err := h.Resolve(ctx, urls[idx])
				results[idx] = result{URL: urls[idx], Resource: res}
				if err != nil {
					results[idx].Error = err.Error()
				}
				logger.WithComponent(logger.ComponentApp).Debug("url done", map[string]interface{}{
					"url":     urls[idx],
					"ok":      err == nil,
					"elapsed": time.Since(start).String(),
				})
			}
		}()
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// readURLs reads one URL per line, skipping blanks and '#' comments.
func readURLs(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
