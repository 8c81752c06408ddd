package helper

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderQRPNG membuat PNG QR untuk link pembayaran / nomor VA.
func RenderQRPNG(content string, size int) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("qr content kosong")
	}
	if size <= 0 {
		size = 256
	}
	if size > 1024 {
		size = 1024
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
