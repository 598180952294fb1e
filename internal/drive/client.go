// Package drive wraps the Google Drive v3 API as the batch's listing,
// download and upload collaborator.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Item is one listed file, identity and metadata as reported by Drive.
type Item struct {
	ID       string
	Name     string
	MIMEType string
	Size     int64
}

// UploadResult identifies an uploaded artifact.
type UploadResult struct {
	ID   string
	Link string
}

// Config holds Drive credentials. Either CredentialsJSON (service account
// key: file path or inline JSON) or AccessToken must be set.
type Config struct {
	CredentialsJSON string
	AccessToken     string
}

type Client struct {
	svc     *driveapi.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a Drive client from service-account or token credentials.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.CredentialsJSON == "" && cfg.AccessToken == "" {
		return nil, fmt.Errorf("either CredentialsJSON or AccessToken is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.AccessToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
		opts = append(opts, option.WithTokenSource(ts))
	} else {
		// Try as file path first, fall back to inline JSON
		credJSON := []byte(cfg.CredentialsJSON)
		if data, err := os.ReadFile(cfg.CredentialsJSON); err == nil {
			credJSON = data
		}
		creds, err := google.CredentialsFromJSON(ctx, credJSON, driveapi.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	svc, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Drive service: %w", err)
	}

	// Rate limiter: 8 qps with burst of 2 (Google limit is 10 qps)
	return &Client{svc: svc, limiter: rate.NewLimiter(8.0, 2), logger: logger}, nil
}

// ListFolder returns every non-folder file in the folder, newest first.
// Pagination is handled here; callers see the full listing.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]Item, error) {
	var items []Item
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := c.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false and mimeType != 'application/vnd.google-apps.folder'", folderID)).
			OrderBy("createdTime desc").
			Fields("nextPageToken", "files(id, name, mimeType, size)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing folder %s: %w", folderID, err)
		}
		for _, f := range res.Files {
			items = append(items, Item{ID: f.Id, Name: f.Name, MIMEType: f.MimeType, Size: f.Size})
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}
	c.logger.Debug("drive.list.ok", "folder_id", folderID, "files", len(items))
	return items, nil
}

// Download fetches the file's content to destPath.
func (c *Client) Download(ctx context.Context, fileID, destPath string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("downloading %s: %w", fileID, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("drive download body close error", "file_id", fileID, "error", err)
		}
	}(resp.Body)

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return out.Close()
}

// Upload creates the file under parentFolderID and returns its id and link.
func (c *Client) Upload(ctx context.Context, localPath, name, mimeType, parentFolderID string) (UploadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return UploadResult{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			c.logger.Warn("drive upload source close error", "path", localPath, "error", err)
		}
	}(f)

	if err := c.limiter.Wait(ctx); err != nil {
		return UploadResult{}, err
	}
	meta := &driveapi.File{Name: name, Parents: []string{parentFolderID}}
	created, err := c.svc.Files.Create(meta).
		Media(f, googleapi.ContentType(mimeType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploading %s: %w", name, err)
	}

	link := created.WebViewLink
	if link == "" {
		link = "https://drive.google.com/file/d/" + created.Id + "/view"
	}
	c.logger.Info("drive.upload.ok", "name", name, "id", created.Id)
	return UploadResult{ID: created.Id, Link: link}, nil
}

// ParseFolderID accepts either a bare folder ID or a full Drive folder URL.
func ParseFolderID(s string) string {
	if i := strings.Index(s, "/folders/"); i >= 0 {
		rest := s[i+len("/folders/"):]
		if j := strings.IndexAny(rest, "?/"); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return s
}
