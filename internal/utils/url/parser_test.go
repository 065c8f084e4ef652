package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct{ base, href, want string }{
		{"http://example.com/list/", "item/1", "http://example.com/list/item/1"},
		{"http://example.com/list/", "/item/1", "http://example.com/item/1"},
		{"http://example.com/list?page=1", "?page=2", "http://example.com/list?page=2"},
		{"http://example.com/", "https://other.org/x", "https://other.org/x"},
	}
	for _, c := range cases {
		if got := ResolveURL(c.base, c.href); got != c.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", c.base, c.href, got, c.want)
		}
	}
}

func TestHostAndFragment(t *testing.T) {
	if got := Host("https://Jobs.Example.COM:8443/a"); got != "jobs.example.com" {
		t.Fatalf("Host = %q", got)
	}
	if got := StripFragment("http://example.com/a#top"); got != "http://example.com/a" {
		t.Fatalf("StripFragment = %q", got)
	}
}
