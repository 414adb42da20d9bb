package cms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeoString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Home", "home"},
		{"Trang Chủ Đẹp!", "trang-chu-dep"},
		{"  About   Us  ", "about-us"},
		{"Café & Crème", "cafe-creme"},
		{"2024/05 -- news", "2024-05-news"},
		{"đường phố", "duong-pho"},
		{"日本", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SeoString(tt.in))
		})
	}
}

func TestSanitizeHTML(t *testing.T) {
	assert.Equal(t, `<a href="https://example.com" rel="nofollow">x</a>`,
		SanitizeHTML(`<a href="https://example.com" onclick="go()">x</a>`))
	assert.Equal(t, "", SanitizeHTML(`<script>alert(1)</script>`))
	assert.Equal(t, "<b>bold</b>", SanitizeHTML("<b>bold</b>"))
}
