package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https with path", "https://wa.me/5215512345678", "https://wa.me/5215512345678"},
		{"host only gets a slash", "https://example.com", "https://example.com/"},
		{"surrounding space", "  http://example.com/a?b=1  ", "http://example.com/a?b=1"},
		{"relative", "/vehiculos", NoLink},
		{"javascript", "javascript:alert(1)", NoLink},
		{"mailto", "mailto:ventas@example.com", NoLink},
		{"empty", "", NoLink},
		{"garbage", "http://[::1", NoLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractFirstLink(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "anchor",
			description: `<p>Agenda tu prueba <a href="https://wa.me/521555">aquí</a></p>`,
			want:        "https://wa.me/521555",
		},
		{
			name:        "first usable anchor wins",
			description: `<a href="#top">top</a> <a href="https://one.example/x">1</a> <a href="https://two.example/">2</a>`,
			want:        "https://one.example/x",
		},
		{
			name:        "anchor beats earlier bare url",
			description: `Ver https://text.example/a o <a href="https://anchor.example/b">aquí</a>`,
			want:        "https://anchor.example/b",
		},
		{
			name:        "bare url in text",
			description: "Más info en https://example.com/ficha (precio final)",
			want:        "https://example.com/ficha",
		},
		{
			name:        "bare host gets a slash",
			description: "<p>https://example.com</p>",
			want:        "https://example.com/",
		},
		{
			name:        "no link",
			description: "<p>Sedán 2020, un dueño</p>",
			want:        NoLink,
		},
		{
			name:        "empty",
			description: "   ",
			want:        NoLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFirstLink(tt.description); got != tt.want {
				t.Errorf("ExtractFirstLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItem_CallToActionURL(t *testing.T) {
	fallback := "https://wa.me/520000"

	with := Item{Description: `<a href="https://example.com/cta">Comprar</a>`}
	if got := with.CallToActionURL(fallback); got != "https://example.com/cta" {
		t.Errorf("CallToActionURL() = %q", got)
	}

	without := Item{Description: "Sin enlace"}
	if got := without.CallToActionURL(fallback); got != fallback {
		t.Errorf("CallToActionURL() = %q, want fallback", got)
	}
}

func TestItem_Detail(t *testing.T) {
	it := Item{ID: "p1", Title: "Kia Rio", Description: `Informes: <a href="https://wa.me/521234">WhatsApp</a>`}

	body, err := json.Marshal(it.Detail())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"id":"p1"`, `"title":"Kia Rio"`, `"cta_url":"https://wa.me/521234"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("detail JSON %s missing %s", body, want)
		}
	}

	body, err = json.Marshal(Item{ID: "p2", Description: "Sin enlace"}.Detail())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(body), "cta_url") {
		t.Errorf("detail JSON %s carries cta_url without a link", body)
	}
}
