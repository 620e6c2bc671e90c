package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/config"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/models"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/routes"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		DBHost:     envOr("TEST_DB_HOST", "localhost"),
		DBPort:     envOr("TEST_DB_PORT", "5432"),
		DBUser:     envOr("TEST_DB_USER", "postgres"),
		DBPassword: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:     envOr("TEST_DB_NAME", "watch_progress_test"),
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		t.Skipf("Test database unavailable: %v", err)
	}

	db.Exec("DELETE FROM watch_checkpoints")
	db.Exec("DELETE FROM watch_progresses")
	db.Exec("DELETE FROM video_stats")
	db.Exec("DELETE FROM users")

	app := fiber.New()
	stats := services.NewStatsService(db, log.New(io.Discard, "", 0))
	routes.SetupRoutes(app, db, cfg, stats)

	return app, db, cfg
}

func envOr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func createUser(t *testing.T, db *gorm.DB, cfg *config.Config, username, role string) (models.User, string) {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Could not create test user: %v", err)
	}

	token, err := utils.GenerateJWTToken(user.ID, cfg)
	if err != nil {
		t.Fatalf("Could not generate token: %v", err)
	}
	return user, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Could not encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestGetVideoProgressDefault(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer1", "user")

	status, result := doJSON(t, app, "GET", "/api/video-progress/course-1/video-1", token, nil)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["success"])

	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["progress"])
	assert.Equal(t, float64(0), data["totalWatchTime"])
	assert.Equal(t, false, data["isCompleted"])
	assert.Len(t, data["reachedPercentages"], 0)
}

func TestUpdateVideoProgressMonotonicMerge(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer2", "user")

	path := "/api/video-progress/course-1/video-1"

	status, result := doJSON(t, app, "PUT", path, token, map[string]interface{}{
		"currentTime": 72, "duration": 120, "progress": 60, "watchTime": 30,
	})
	assert.Equal(t, fiber.StatusOK, status)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(60), data["progress"])
	assert.Equal(t, float64(30), data["totalWatchTime"])

	// A regressive progress value must not shrink the stored record, and
	// watch time is additive.
	_, result = doJSON(t, app, "PUT", path, token, map[string]interface{}{
		"currentTime": 12, "duration": 120, "progress": 10, "watchTime": 5,
	})
	data = result["data"].(map[string]interface{})
	assert.Equal(t, float64(60), data["progress"])
	assert.Equal(t, float64(35), data["totalWatchTime"])
}

func TestUpdateVideoProgressCheckpointDedup(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer3", "user")

	path := "/api/video-progress/course-1/video-1"
	body := map[string]interface{}{
		"currentTime": 15, "duration": 100, "progress": 15, "watchTime": 12,
		"reachedPercentage": 10,
	}

	_, result := doJSON(t, app, "PUT", path, token, body)
	data := result["data"].(map[string]interface{})
	assert.Len(t, data["reachedPercentages"], 1)

	// Duplicate ticks reporting the same checkpoint keep exactly one entry.
	_, result = doJSON(t, app, "PUT", path, token, body)
	data = result["data"].(map[string]interface{})
	reached := data["reachedPercentages"].([]interface{})
	if assert.Len(t, reached, 1) {
		first := reached[0].(map[string]interface{})
		assert.Equal(t, float64(10), first["percentage"])
	}
}

func TestUpdateVideoProgressCompletionGate(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer4", "user")

	path := "/api/video-progress/course-1/video-1"

	_, result := doJSON(t, app, "PUT", path, token, map[string]interface{}{
		"currentTime": 114, "duration": 120, "progress": 95, "watchTime": 5,
	})
	data := result["data"].(map[string]interface{})
	assert.Equal(t, false, data["isCompleted"])

	_, result = doJSON(t, app, "PUT", path, token, map[string]interface{}{
		"currentTime": 114, "duration": 120, "progress": 95, "watchTime": 55,
	})
	data = result["data"].(map[string]interface{})
	assert.Equal(t, true, data["isCompleted"])
}

func TestResetVideoProgress(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer5", "user")

	_, _ = doJSON(t, app, "PUT", "/api/video-progress/course-1/video-1", token, map[string]interface{}{
		"currentTime": 60, "duration": 100, "progress": 60, "watchTime": 70,
		"reachedPercentage": 50,
	})

	status, result := doJSON(t, app, "DELETE", "/api/video-progress/video-1?courseId=course-1", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["progress"])
	assert.Equal(t, float64(0), data["totalWatchTime"])
	assert.Equal(t, false, data["isCompleted"])
	assert.Len(t, data["reachedPercentages"], 0)

	// The zeroed state is what a fresh GET sees as well.
	_, result = doJSON(t, app, "GET", "/api/video-progress/course-1/video-1", token, nil)
	data = result["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["progress"])
	assert.Len(t, data["reachedPercentages"], 0)
}

func TestGetCourseVideoProgress(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer6", "user")

	for i := 1; i <= 2; i++ {
		path := fmt.Sprintf("/api/video-progress/course-1/video-%d", i)
		doJSON(t, app, "PUT", path, token, map[string]interface{}{
			"currentTime": 10, "duration": 100, "progress": 10, "watchTime": 10,
		})
	}
	doJSON(t, app, "PUT", "/api/video-progress/course-2/video-9", token, map[string]interface{}{
		"currentTime": 10, "duration": 100, "progress": 10, "watchTime": 10,
	})

	status, result := doJSON(t, app, "GET", "/api/video-progress/course/course-1", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, result["data"], 2)
}

func TestAdminVideoProgressList(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, userToken := createUser(t, db, cfg, "viewer7", "user")
	_, adminToken := createUser(t, db, cfg, "admin7", "admin")

	doJSON(t, app, "PUT", "/api/video-progress/course-1/video-1", userToken, map[string]interface{}{
		"currentTime": 50, "duration": 100, "progress": 50, "watchTime": 55,
	})

	status, _ := doJSON(t, app, "GET", "/api/video-progress/admin/video/video-1?courseId=course-1", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, result := doJSON(t, app, "GET", "/api/video-progress/admin/video/video-1?courseId=course-1", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	entries := result["data"].([]interface{})
	if assert.Len(t, entries, 1) {
		entry := entries[0].(map[string]interface{})
		assert.Equal(t, user.Username, entry["username"])
		assert.Equal(t, user.Email, entry["email"])
		assert.Equal(t, float64(50), entry["progress"])
	}
}

func TestAdminVideoStats(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token1 := createUser(t, db, cfg, "viewer8", "user")
	_, token2 := createUser(t, db, cfg, "viewer9", "user")
	_, adminToken := createUser(t, db, cfg, "admin8", "admin")

	doJSON(t, app, "PUT", "/api/video-progress/course-1/video-1", token1, map[string]interface{}{
		"currentTime": 95, "duration": 100, "progress": 95, "watchTime": 90,
	})
	doJSON(t, app, "PUT", "/api/video-progress/course-1/video-1", token2, map[string]interface{}{
		"currentTime": 45, "duration": 100, "progress": 45, "watchTime": 45,
	})

	status, result := doJSON(t, app, "GET", "/api/video-progress/admin/video/video-1/stats?courseId=course-1", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["viewers"])
	assert.Equal(t, float64(70), data["averageProgress"])
	assert.Equal(t, float64(1), data["completedCount"])
}

func TestVideoProgressValidation(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer10", "user")

	// Unauthenticated requests never reach the handlers.
	status, _ := doJSON(t, app, "GET", "/api/video-progress/course-1/video-1", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// Reset without the course id is rejected at the boundary.
	status, _ = doJSON(t, app, "DELETE", "/api/video-progress/video-1", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
