package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"slide_to_glory/internal/service"
)

func TestJWT(t *testing.T) {
	service.InitJWT("mw-secret")
	valid, err := service.GenerateJWT(42, "ana")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		name, _ := Username(c)
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"username": name, "id": id})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				require.JSONEq(t, `{"username":"ana","id":42}`, w.Body.String())
			}
		})
	}
}
