package slug

import (
	"regexp"
	"testing"
)

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain words", input: "Ford F-150 Lariat", want: "ford-f-150-lariat"},
		{name: "accents", input: "Café con azúcar", want: "cafe-con-azucar"},
		{name: "tilde and cedilla", input: "Año Façade", want: "ano-facade"},
		{name: "leading and trailing junk", input: "  --Hello, World!--  ", want: "hello-world"},
		{name: "runs collapse", input: "a   ___   b", want: "a-b"},
		{name: "upper case", input: "TOYOTA HILUX", want: "toyota-hilux"},
		{name: "only symbols", input: "¡¿?!", want: ""},
		{name: "non latin script", input: "日本 2024", want: "2024"},
		{name: "digits only", input: "12345", want: "12345"},
		{name: "already a slug", input: "chevrolet-onix-2023", want: "chevrolet-onix-2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_InvalidUTF8(t *testing.T) {
	got := Slugify("Kia \xff\xfe Rio")
	if got != "kia-rio" {
		t.Errorf("Slugify(invalid utf-8) = %q, want %q", got, "kia-rio")
	}
}

func TestSlugify_OutputShape(t *testing.T) {
	inputs := []string{
		"Mazda CX-5 (2021) — Grand Touring",
		"  Señor   Niño  ",
		"x",
		"-a-",
		"Ünïcödé ÀÉÎÕÜ",
		"100% nuevo!!!",
	}

	for _, in := range inputs {
		got := Slugify(in)
		if got == "" {
			t.Errorf("Slugify(%q) returned empty", in)
			continue
		}
		if !validSlug.MatchString(got) {
			t.Errorf("Slugify(%q) = %q, not a valid slug", in, got)
		}
		if again := Slugify(got); again != got {
			t.Errorf("Slugify not idempotent: %q -> %q -> %q", in, got, again)
		}
	}
}
