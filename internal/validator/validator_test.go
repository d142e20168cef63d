package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type variantBody struct {
	Title   string `json:"title" binding:"required"`
	Variant string `json:"variant" binding:"omitempty,variant"`
}

func bindBody(body string) map[string]string {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst variantBody
	return Bind(c, &dst)
}

func TestBindVariant(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"reading", `{"title":"t","variant":"reading"}`, nil},
		{"listening any case", `{"title":"t","variant":"Listening"}`, nil},
		{"omitted", `{"title":"t"}`, nil},
		{"unknown variant", `{"title":"t","variant":"speaking"}`, []string{"variant"}},
		{"missing title", `{"variant":"reading"}`, []string{"title"}},
		{"bad json", `{`, []string{"detail"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := bindBody(tc.body)
			if tc.fields == nil {
				assert.Nil(t, fields)
				return
			}
			for _, f := range tc.fields {
				assert.Contains(t, fields, f)
			}
		})
	}

	fields := bindBody(`{"title":"t","variant":"speaking"}`)
	assert.Equal(t, "variant must be either reading or listening", fields["variant"])
}
