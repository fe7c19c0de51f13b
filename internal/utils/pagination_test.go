package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		page, size int
		offset     int
	}{
		{"", 1, 20, 0},
		{"?page=3&page_size=10", 3, 10, 20},
		{"?page=2&limit=5", 2, 5, 5},
		{"?page_size=7&limit=5", 1, 7, 0},
		{"?page=-4&page_size=500", 1, 20, 0},
		{"?page=abc&page_size=0", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			params := GetPaginationParams(c)

			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.size, params.Limit)
			assert.Equal(t, tt.offset, params.Offset)
		})
	}
}
