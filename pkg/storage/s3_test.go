package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageExtension(t *testing.T) {
	tests := []struct {
		contentType, filename string
		want                  string
		ok                    bool
	}{
		{"image/png", "x.bin", ".png", true},
		{"IMAGE/JPEG", "", ".jpg", true},
		{"", "poster.JPEG", ".jpg", true},
		{"application/octet-stream", "banner.webp", ".webp", true},
		{"video/mp4", "clip.mp4", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		got, ok := ImageExtension(tt.contentType, tt.filename)
		assert.Equal(t, tt.ok, ok, "%s %s", tt.contentType, tt.filename)
		assert.Equal(t, tt.want, got)
	}
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "events/42/abc.png", ImageKey("42", "abc", ".png"))
}

func TestKeyFromURL(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "ap-southeast-1", ImagesBucket: "hh-images"}}
	url := s.PublicObjectURL("events/42/abc.png")
	assert.Equal(t, "https://hh-images.s3.ap-southeast-1.amazonaws.com/events/42/abc.png", url)

	key, ok := s.keyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "events/42/abc.png", key)

	_, ok = s.keyFromURL("https://cdn.example/poster.png")
	assert.False(t, ok)
	_, ok = s.keyFromURL("")
	assert.False(t, ok)
}
