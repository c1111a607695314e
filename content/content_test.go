package content

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lower and trim", "  Hello World  ", "hello world"},
		{"drop links", "see https://x.com/a?b=1 and http://foo now", "see and now"},
		{"collapse control", "a\t\n\r b\x00c", "a b c"},
		{"empty", "", ""},
		{"only link", "https://example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens(Normalize("The quick, brown fox! jumps over the quick dog... ok go #rust"))
	want := []string{"quick", "brown", "fox", "jumps", "over", "dog", "rust"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestTokensCap(t *testing.T) {
	text := ""
	for i := 0; i < 40; i++ {
		text += " word" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	if got := Tokens(Normalize(text)); len(got) != MaxTokens {
		t.Errorf("len(Tokens) = %d, want %d", len(got), MaxTokens)
	}
}

func TestHashDJB2(t *testing.T) {
	if Hash("") != 5381 {
		t.Errorf("Hash(\"\") = %d", Hash(""))
	}
	if Hash("a") != 5381*33+'a' {
		t.Errorf("Hash(a) = %d", Hash("a"))
	}
}

func TestNewFallsBackToID(t *testing.T) {
	if fp := New("", ""); !fp.Empty() {
		t.Error("empty id and content should give empty fingerprint")
	}
	a, b := New("tweet_0", ""), New("tweet_0", "  ")
	if a.Empty() || a.Hash != b.Hash {
		t.Errorf("id fallback mismatch: %+v vs %+v", a, b)
	}
}

func TestCluster(t *testing.T) {
	fps := []Fingerprint{
		New("1", "Breaking: rust release announced today with new features"),
		New("2", "totally different topic about gardening tomatoes"),
		New("3", "BREAKING: Rust release announced today with new features https://t.co/x"),
		New("4", "rust release announced today with many new features"),
		New("", ""),
		New("", ""),
	}
	got := Cluster(fps)

	if got.IDs[0] != got.IDs[2] || got.IDs[0] != got.IDs[3] {
		t.Errorf("near duplicates not clustered: %v", got.IDs)
	}
	if got.IDs[1] == got.IDs[0] {
		t.Errorf("unrelated content clustered: %v", got.IDs)
	}
	if got.IDs[4] == got.IDs[5] {
		t.Errorf("empty fingerprints must be singletons: %v", got.IDs)
	}
	if got.Size(0) != 3 || got.Size(4) != 1 {
		t.Errorf("sizes = %v", got.Sizes)
	}

	again := Cluster(fps)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("clustering not idempotent: %v vs %v", got, again)
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity([]string{"aaa", "bbb"}, []string{"bbb", "ccc"}); s != 1.0/3 {
		t.Errorf("Similarity = %v", s)
	}
	if Similarity(nil, []string{"x"}) != 0 {
		t.Error("empty set similarity should be 0")
	}
}
