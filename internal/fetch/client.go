package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "primekg/pkg/errors"
)

const (
	userAgent      = "primekg-fetch/1.0"
	copyBufferSize = 1 << 20 // 1 MiB
)

// CatalogFile is one file listed by the dataset catalog
type CatalogFile struct {
	Label string
	ID    int64
	Size  int64
}

// Result is the outcome of one file download
type Result struct {
	Path string
	Err  error
}

// Client downloads dataset files from a Dataverse-style catalog. Per-file
// failures never abort a batch; retry policy, if any, belongs to the
// caller
type Client struct {
	baseURL     string
	doi         string
	concurrency int
	httpClient  *http.Client
	log         *zap.Logger
}

// NewClient creates a catalog client. A zero timeout leaves downloads
// unbounded, which the multi-gigabyte tables need on slow links
func NewClient(baseURL, doi string, concurrency int, timeout time.Duration, log *zap.Logger) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		doi:         doi,
		concurrency: concurrency,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log,
	}
}

// FetchFileList queries the catalog for the latest version's file listing
func (c *Client) FetchFileList(ctx context.Context) ([]CatalogFile, error) {
	url := fmt.Sprintf("%s/api/datasets/:persistentId/versions/:latest/files?persistentId=doi:%s", c.baseURL, c.doi)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, apperrors.NewFetchFailed("file list", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchFailed("file list", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewFetchFailed("file list", url, fmt.Errorf("catalog returned %s", resp.Status))
	}

	var listing struct {
		Data []struct {
			Label    string `json:"label"`
			Size     int64  `json:"size"`
			DataFile struct {
				ID       int64 `json:"id"`
				Filesize int64 `json:"filesize"`
			} `json:"dataFile"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, apperrors.NewFetchFailed("file list", url, err)
	}

	files := make([]CatalogFile, 0, len(listing.Data))
	for _, entry := range listing.Data {
		if entry.DataFile.ID == 0 {
			c.log.Warn("Skipping catalog entry without a file id", zap.String("label", entry.Label))
			continue
		}
		size := entry.DataFile.Filesize
		if size == 0 {
			size = entry.Size
		}
		files = append(files, CatalogFile{Label: entry.Label, ID: entry.DataFile.ID, Size: size})
	}

	c.log.Info("Catalog file list fetched",
		zap.String("doi", c.doi),
		zap.Int("files", len(files)),
	)
	return files, nil
}

// DownloadAll fetches every manifest-listed catalog file into dir,
// several at a time, then converts .tab downloads to .csv. The returned
// map is keyed by local file name; entries carry either the final path
// or the per-file error. Only catalog listing failures and context
// cancellation are returned as errors
func (c *Client) DownloadAll(ctx context.Context, dir string, manifest *Manifest) (map[string]Result, error) {
	files, err := c.FetchFileList(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	wanted := make([]CatalogFile, 0, len(files))
	for _, f := range files {
		if manifest == nil || manifest.Wanted(f.Label) {
			wanted = append(wanted, f)
		}
	}
	c.log.Info("Downloading dataset files",
		zap.Int("listed", len(files)),
		zap.Int("wanted", len(wanted)),
		zap.Int("concurrency", c.concurrency),
	)

	results := make([]Result, len(wanted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var mu sync.Mutex
	for i, f := range wanted {
		idx := i
		file := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			path, err := c.downloadFile(gctx, dir, file)
			mu.Lock()
			results[idx] = Result{Path: path, Err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ConvertTabFiles(dir, c.log); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(wanted))
	for i, f := range wanted {
		name := NormalizeLabel(f.Label)
		res := results[i]
		if res.Err == nil {
			res.Path = filepath.Join(dir, name)
		}
		out[name] = res
	}
	return out, nil
}

// downloadFile streams one catalog file to a temporary path and renames
// it into place once every check passes. An existing destination with the
// expected size is kept as is
func (c *Client) downloadFile(ctx context.Context, dir string, file CatalogFile) (string, error) {
	dest := filepath.Join(dir, file.Label)
	if info, err := os.Stat(dest); err == nil && file.Size > 0 && info.Size() == file.Size {
		c.log.Info("File already present with expected size", zap.String("file", file.Label))
		return dest, nil
	}

	url := fmt.Sprintf("%s/api/access/datafile/%d", c.baseURL, file.ID)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", apperrors.NewFetchFailed(file.Label, url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewFetchFailed(file.Label, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewFetchFailed(file.Label, url, fmt.Errorf("catalog returned %s", resp.Status))
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return "", apperrors.NewFetchHTMLResponse(file.Label, htmlTitle(resp.Body))
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", apperrors.NewFetchFailed(file.Label, url, err)
	}

	buf := make([]byte, copyBufferSize)
	written, copyErr := io.CopyBuffer(out, resp.Body, buf)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr == nil {
			copyErr = closeErr
		}
		return "", apperrors.NewFetchFailed(file.Label, url, copyErr)
	}

	if file.Size > 0 && written != file.Size {
		os.Remove(tmp)
		return "", apperrors.NewFetchSizeMismatch(file.Label, file.Size, written)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", apperrors.NewFetchFailed(file.Label, url, err)
	}

	c.log.Info("File downloaded",
		zap.String("file", file.Label),
		zap.Int64("bytes", written),
		zap.Duration("took", time.Since(start)),
	)
	return dest, nil
}

// htmlTitle pulls the page title (or first heading) out of an HTML error
// body so the failure names the page instead of dumping markup
func htmlTitle(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title
}
