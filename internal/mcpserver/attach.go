package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/almanac/internal/apperr"
)

const maxAttachmentSize = 10 << 20 // 10 MB

var (
	// attachmentTypes maps accepted extensions to their content type.
	attachmentTypes = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
		".pdf":  "application/pdf",
	}

	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// payload is a fetched attachment before it is stored.
type payload struct {
	data []byte
	ext  string // extension implied by the declared content type, may be empty
}

type attachResult struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

func (s *Server) attachFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var p *payload
	if strings.HasPrefix(src, "data:") {
		p, err = fromDataURI(src)
	} else {
		p, err = download(ctx, src)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := cleanName(req.GetString("filename", ""))
	if name == "" {
		name = nameFromSource(src, p.ext)
	}
	ext := strings.ToLower(filepath.Ext(name))
	ct, ok := attachmentTypes[ext]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp, svg, pdf)", ext)), nil
	}
	if err := sniff(p.data, ext); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if rc, _, getErr := s.files.Get(ctx, name); getErr == nil {
		rc.Close()
		return mcp.NewToolResultError(fmt.Sprintf("attachment already exists: %s", name)), nil
	} else if !errors.Is(getErr, apperr.ErrNotFound) {
		return toolError(getErr), nil
	}

	obj, err := s.files.Put(ctx, name, bytes.NewReader(p.data), int64(len(p.data)), ct)
	if err != nil {
		return toolError(err), nil
	}

	u := "/attachments/" + obj.Name
	out, _ := json.Marshal(attachResult{
		Name:     obj.Name,
		URL:      u,
		Markdown: fmt.Sprintf("![%s](%s)", obj.Name, u),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// fromDataURI decodes a data:<mediatype>;base64,<data> URI.
func fromDataURI(uri string) (*payload, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxAttachmentSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(data), maxAttachmentSize)
	}

	mediaType, _, _ := strings.Cut(strings.TrimSuffix(meta, ";base64"), ";")
	ext := extFor(mediaType)
	if ext == "" {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mediaType)
	}
	return &payload{data: data, ext: ext}, nil
}

// download fetches an http(s) URL, refusing loopback and metadata hosts.
func download(ctx context.Context, raw string) (*payload, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", u.Scheme)
	}
	if err := allowedHost(u.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return allowedHost(req.URL.Hostname())
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxAttachmentSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxAttachmentSize)
	}
	mediaType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return &payload{data: data, ext: extFor(strings.TrimSpace(mediaType))}, nil
}

// allowedHost rejects loopback and cloud metadata addresses.
func allowedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil // the client reports DNS failures
		}
		ip = ips[0]
	}
	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

func extFor(mediaType string) string {
	if mediaType == "image/jpeg" {
		return ".jpg"
	}
	for ext, ct := range attachmentTypes {
		if ct == mediaType {
			return ext
		}
	}
	return ""
}

// nameFromSource takes the last path segment of an http(s) URL, or a random
// name with ext for data URIs and extensionless paths.
func nameFromSource(src, ext string) string {
	if !strings.HasPrefix(src, "data:") {
		if u, err := url.Parse(src); err == nil {
			if base := cleanName(path.Base(u.Path)); strings.Contains(base, ".") {
				return base
			}
		}
	}
	if ext == "" {
		ext = ".bin"
	}
	return uuid.NewString() + ext
}

// cleanName keeps the base name and replaces unsafe characters. Leading dots
// are dropped so the result is never a hidden file.
func cleanName(name string) string {
	if name == "" {
		return ""
	}
	name = unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
	return strings.TrimLeft(name, ".")
}

// sniff checks that the content matches the extension.
func sniff(data []byte, ext string) error {
	if ext == ".svg" {
		head := data
		if len(head) > 1024 {
			head = head[:1024]
		}
		if !bytes.Contains(head, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}
	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if detected != attachmentTypes[ext] {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
