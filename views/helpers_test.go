package views

import (
	"testing"
	"time"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://wire.example.com", nil, "https://wire.example.com"},
		{"https://wire.example.com", []string{"post", "cpi-cools"}, "https://wire.example.com/post/cpi-cools/"},
		{"https://wire.example.com/news/", []string{"category", "markets"}, "https://wire.example.com/news/category/markets/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestLinks(t *testing.T) {
	if got := CategoryLink("markets"); got != "/category/markets/" {
		t.Errorf("CategoryLink = %q", got)
	}
	if got := TagLink("Record Highs"); got != "/tag/record-highs/" {
		t.Errorf("TagLink = %q", got)
	}
	if got := AuthorLink("alex-rivera"); got != "/author/alex-rivera/" {
		t.Errorf("AuthorLink = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("FormatDate(zero) = %q, want empty", got)
	}
	d := time.Date(2024, 3, 9, 23, 0, 0, 0, time.FixedZone("EST", -5*3600))
	if got := FormatDate(d); got != "Mar 10, 2024" {
		t.Errorf("FormatDate = %q, want UTC date", got)
	}
}
