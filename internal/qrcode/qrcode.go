// Package qrcode builds links to the hosted QR image service for the scan-to-open view.
package qrcode

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize    = 300
	DefaultMargin  = 10
	DefaultTarget  = "https://www.baidu.com"

	// ShareTitle is offered to the browser share sheet together with the target URL
	ShareTitle = "MediScan 药品查询"
)

// WarningBlobURL explains why a blob: target cannot be scanned
const WarningBlobURL = "blob: preview addresses only exist inside the current browser; phones cannot open them. Use the deployed https address instead."

// Config describes the hosted image endpoint
type Config struct {
	BaseURL string
	Size    int
	// Margin is the quiet zone in pixels; nil or negative uses DefaultMargin
	Margin        *int
	DefaultTarget string
}

// Generator produces QR image links
type Generator struct {
	baseURL       string
	size          int
	margin        int
	defaultTarget string
}

// Code is what the QR view renders
type Code struct {
	Target     string `json:"target"`
	ImageURL   string `json:"image_url"`
	Warning    string `json:"warning,omitempty"`
	ShareTitle string `json:"share_title"`
}

// NewGenerator fills unset fields with the defaults
func NewGenerator(cfg Config) *Generator {
	g := &Generator{
		baseURL:       cfg.BaseURL,
		size:          cfg.Size,
		margin:        DefaultMargin,
		defaultTarget: cfg.DefaultTarget,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.size <= 0 {
		g.size = DefaultSize
	}
	if cfg.Margin != nil && *cfg.Margin >= 0 {
		g.margin = *cfg.Margin
	}
	if g.defaultTarget == "" {
		g.defaultTarget = DefaultTarget
	}
	return g
}

// ImageURL returns the address of the rendered QR image for target.
// An empty target encodes the configured default.
func (g *Generator) ImageURL(target string) string {
	if strings.TrimSpace(target) == "" {
		target = g.defaultTarget
	}

	params := url.Values{}
	params.Set("size", fmt.Sprintf("%dx%d", g.size, g.size))
	params.Set("margin", strconv.Itoa(g.margin))
	params.Set("data", target)

	sep := "?"
	if strings.Contains(g.baseURL, "?") {
		sep = "&"
	}
	return g.baseURL + sep + params.Encode()
}

// Build describes the QR code for target
func (g *Generator) Build(target string) Code {
	target = strings.TrimSpace(target)
	code := Code{
		Target:     target,
		ImageURL:   g.ImageURL(target),
		ShareTitle: ShareTitle,
	}
	if IsBlobURL(target) {
		code.Warning = WarningBlobURL
	}
	return code
}

// IsBlobURL reports whether target is a browser-local blob: address
func IsBlobURL(target string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(target)), "blob:")
}
