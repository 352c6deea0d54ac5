package e2e

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/marmos91/filesmanager/test/e2e/framework"
)

// pngBase64 returns a base64 encoded PNG of the given size.
func pngBase64(t testing.TB, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, x%height, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// waitForStatus polls path until it answers status or timeout expires.
func waitForStatus(t testing.TB, c *framework.Client, path string, status int, timeout time.Duration) *framework.Response {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		resp := c.Do("GET", path, nil)
		if resp.Status == status {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("GET %s: expected %d within %v, last status %d: %s", path, status, timeout, resp.Status, resp.Body)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func imageWidth(t testing.TB, data []byte) int {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}
	return cfg.Width
}
