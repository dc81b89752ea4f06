package shortcuts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promptlab/internal/shortcut"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:shortcut_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&shortcut.Shortcut{}))

	h := NewShortcutHandler(shortcut.NewService(db))

	router := gin.New()
	g := router.Group("/api/shortcuts")
	g.GET("", h.ListShortcuts)
	g.POST("", h.CreateShortcut)
	g.POST("/match", h.MatchShortcut)
	g.POST("/:id/use", h.UseShortcut)
	g.DELETE("/:id", h.DeleteShortcut)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestShortcutHandler_CreateAndMatch(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/shortcuts", gin.H{
		"trigger":   ":sig",
		"expansion": "Best regards,\nAlice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("重复触发词返回409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/shortcuts", gin.H{
			"trigger":   ":sig",
			"expansion": "x",
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("空触发词返回400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/shortcuts", gin.H{"expansion": "x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("后缀命中", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/shortcuts/match", gin.H{
			"text": "bye :sig",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var m shortcut.Match
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		require.True(t, m.Matched)
		require.Equal(t, ":sig", m.Shortcut.Trigger)
		require.Equal(t, 4, m.Position)
	})

	t.Run("未命中", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/shortcuts/match", gin.H{
			"text": ":sig 在中间",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var m shortcut.Match
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		require.False(t, m.Matched)
	})
}

func TestShortcutHandler_Use(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/shortcuts", gin.H{
		"trigger":   ":lgtm",
		"expansion": "Looks good to me!",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created shortcut.Shortcut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/shortcuts/%d/use", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var used shortcut.Shortcut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &used))
	require.Equal(t, 1, used.UseCount)

	t.Run("不存在返回404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/shortcuts/99999/use", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
