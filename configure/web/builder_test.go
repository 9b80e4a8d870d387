package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/logging"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() logging.Logger {
	builder := logging.NewLoggingBuilder()
	builder.AddConsole(logging.ConsoleLoggerOptions{
		Output:      os.Stdout,
		ColorOutput: false,
	})
	factory := builder.Build()
	return factory.CreateLogger("test")
}

func TestWebBuilder_Routes(t *testing.T) {
	builder := NewBuilder(newTestLogger())

	builder.Get("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})
	builder.Post("/echo", func(ctx *gin.Context) {
		body, _ := ctx.GetRawData()
		ctx.String(http.StatusOK, string(body))
	})

	engine := builder.Engine()

	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/ping", nil)
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "pong", w1.Body.String())

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/echo", nil)
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestWebBuilder_Group(t *testing.T) {
	builder := NewBuilder(newTestLogger())

	api := builder.Group("/api")
	api.GET("/users", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"users": []string{}})
	})

	engine := builder.Engine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/users", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebBuilder_NoRoute(t *testing.T) {
	builder := NewBuilder(newTestLogger())

	builder.NoRoute(func(ctx *gin.Context) {
		ctx.String(http.StatusNotFound, "custom-404")
	})

	engine := builder.Engine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/missing", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "custom-404", w.Body.String())
}
