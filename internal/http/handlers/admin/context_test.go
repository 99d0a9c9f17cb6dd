package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext(t *testing.T, rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	c.Request = req
	return c, w
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&page_size=50", 3, 50},
		{"negative_page", "page=-2&page_size=10", 1, 10},
		{"oversized", "page=1&page_size=500", 1, 100},
		{"garbage", "page=abc&page_size=xyz", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(t, tc.query)
			page, pageSize := pageParams(c)
			if page != tc.wantPage || pageSize != tc.wantSize {
				t.Fatalf("pageParams(%q) = (%d, %d), want (%d, %d)", tc.query, page, pageSize, tc.wantPage, tc.wantSize)
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	c, _ := newTestContext(t, "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseIDParam(c, "id")
	if !ok || id != 42 {
		t.Fatalf("parseIDParam = (%d, %v), want (42, true)", id, ok)
	}
}

func TestParseIDParamInvalid(t *testing.T) {
	for _, raw := range []string{"", "0", "abc", "-1"} {
		c, w := newTestContext(t, "")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		if _, ok := parseIDParam(c, "id"); ok {
			t.Fatalf("parseIDParam(%q) ok, want failure", raw)
		}
		if w.Code != http.StatusOK {
			// respondError 统一使用 200 + 业务码
			t.Fatalf("unexpected http status %d for %q", w.Code, raw)
		}
	}
}
