package envelope

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// --- Redact ---

func TestRedact_NestedSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"password": "x",
		"nested": map[string]any{
			"token": "y",
			"ok":    "z",
		},
	}
	want := map[string]any{
		"password": "***",
		"nested": map[string]any{
			"token": "***",
			"ok":    "z",
		},
	}

	got := Redact(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Redact = %#v, want %#v", got, want)
	}
}

func TestRedact_CaseInsensitiveKeys(t *testing.T) {
	got := Redact(map[string]any{"ApiKey": "k", "Authorization": "Bearer abc", "name": "n"})
	if got["ApiKey"] != Mask {
		t.Errorf("ApiKey = %v, want mask", got["ApiKey"])
	}
	if got["Authorization"] != Mask {
		t.Errorf("Authorization = %v, want mask", got["Authorization"])
	}
	if got["name"] != "n" {
		t.Errorf("name = %v, want n", got["name"])
	}
}

func TestRedact_SlicesPassThrough(t *testing.T) {
	list := []any{"token", map[string]any{"secret": "s"}}
	got := Redact(map[string]any{"items": list})
	if !reflect.DeepEqual(got["items"], list) {
		t.Errorf("items = %#v, want unchanged %#v", got["items"], list)
	}
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"secret": "s"}
	_ = Redact(in)
	if in["secret"] != "s" {
		t.Error("Redact should not mutate its input")
	}
}

func TestRedact_Nil(t *testing.T) {
	if Redact(nil) != nil {
		t.Error("Redact(nil) should be nil")
	}
}

// --- Success / Error ---

func TestSuccess_Shape(t *testing.T) {
	resp := Success(7, map[string]any{"ok": true}, map[string]any{"durationMs": 3})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"id":7`, `"version":"0.1"`, `"result":{"ok":true}`, `"durationMs":3`} {
		if !strings.Contains(got, want) {
			t.Errorf("envelope %s missing %s", got, want)
		}
	}
	if strings.Contains(got, `"error"`) {
		t.Errorf("success envelope should not carry error: %s", got)
	}
}

func TestSuccess_NilResultBecomesEmptyObject(t *testing.T) {
	data, _ := json.Marshal(Success(nil, nil, nil))
	if !strings.Contains(string(data), `"result":{}`) {
		t.Errorf("expected empty result object, got %s", data)
	}
	if !strings.Contains(string(data), `"id":null`) {
		t.Errorf("expected null id, got %s", data)
	}
}

func TestError_RedactsDetails(t *testing.T) {
	resp := Error("a", CodeInputInvalid, "Input validation failed", map[string]any{"token": "t"}, nil)
	if resp.Result != nil {
		t.Error("error envelope should not carry result")
	}
	details := resp.Error.Details.(map[string]any)
	if details["token"] != Mask {
		t.Errorf("details token = %v, want mask", details["token"])
	}
	if resp.Error.Code != CodeInputInvalid {
		t.Errorf("code = %d, want %d", resp.Error.Code, CodeInputInvalid)
	}
}

// --- FromResult ---

func TestFromResult_Structured(t *testing.T) {
	detail, ok := FromResult(map[string]any{
		"error": map[string]any{"code": float64(40900), "message": "nope", "details": "d"},
	})
	if !ok {
		t.Fatal("expected structured error to be recognized")
	}
	if detail.Code != 40900 || detail.Message != "nope" || detail.Details != "d" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestFromResult_JSONNumberCode(t *testing.T) {
	detail, ok := FromResult(map[string]any{
		"error": map[string]any{"code": json.Number("40901"), "message": "locked"},
	})
	if !ok || detail.Code != 40901 {
		t.Errorf("FromResult = %+v, %v", detail, ok)
	}
}

func TestFromResult_NotStructured(t *testing.T) {
	cases := []any{
		nil,
		"text",
		map[string]any{"error": "flat"},
		map[string]any{"error": map[string]any{"message": "no code"}},
		map[string]any{"error": map[string]any{"code": 400.5, "message": "fractional"}},
		map[string]any{"error": map[string]any{"code": json.Number("400.5"), "message": "fractional"}},
	}
	for _, c := range cases {
		if _, ok := FromResult(c); ok {
			t.Errorf("FromResult(%#v) should not match", c)
		}
	}
}

func TestAsMap_RoundTrip(t *testing.T) {
	detail := NewError(CodeArtifactLocked, "locked", nil)
	back, ok := FromResult(detail.AsMap())
	if !ok || back.Code != CodeArtifactLocked || back.Message != "locked" {
		t.Errorf("round trip = %+v, %v", back, ok)
	}
}
