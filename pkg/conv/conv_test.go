package conv

import "testing"

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"name":   "feed",
		"window": 10,
		"ratio":  2,
		"span":   1.8,
		"ids":    []any{"a", 42.0, true},
	}

	if got := ConfigGet(cfg, "name", ""); got != "feed" {
		t.Errorf("ConfigGet(name) = %q", got)
	}
	if got := ConfigGet(cfg, "window", "x"); got != "x" {
		t.Errorf("ConfigGet with wrong type should return default, got %q", got)
	}
	if got := ConfigGetInt64(cfg, "window", 0); got != 10 {
		t.Errorf("ConfigGetInt64(window) = %d", got)
	}
	if got := ConfigGetFloat64(cfg, "ratio", 0); got != 2 {
		t.Errorf("ConfigGetFloat64(ratio) = %v", got)
	}
	if got := ConfigGetFloat64(cfg, "missing", 0.5); got != 0.5 {
		t.Errorf("ConfigGetFloat64(missing) = %v", got)
	}

	ids := SliceAnyToString(cfg["ids"])
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "42" || ids[2] != "1" {
		t.Errorf("SliceAnyToString() = %v", ids)
	}
	if SliceAnyToString("nope") != nil {
		t.Error("SliceAnyToString(non-slice) should be nil")
	}
}
