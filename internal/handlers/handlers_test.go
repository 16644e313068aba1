package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/auth"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return router.NewRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

type registerResponse struct {
	User struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		IsCreator bool   `json:"is_creator"`
	} `json:"user"`
	Passcode string `json:"passcode"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID        uint `json:"id"`
		IsCreator bool `json:"is_creator"`
	} `json:"user"`
}

func register(t *testing.T, r *gin.Engine, name, email string) registerResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email})

	if w.Code != http.StatusCreated {
		t.Fatalf("registration of %s failed with %d: %s", email, w.Code, w.Body.String())
	}

	var resp registerResponse
	decode(t, w, &resp)
	return resp
}

func login(t *testing.T, r *gin.Engine, email, passcode string) loginResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "passcode": passcode})

	if w.Code != http.StatusOK {
		t.Fatalf("login of %s failed with %d: %s", email, w.Code, w.Body.String())
	}

	var resp loginResponse
	decode(t, w, &resp)
	return resp
}

func TestRegistrationBootstrapAndLogin(t *testing.T) {
	r := setupServer(t)

	alice := register(t, r, "Alice", "alice@example.com")

	if !alice.User.IsCreator {
		t.Error("first registrant should be the creator")
	}

	bob := register(t, r, "Bob", "bob@example.com")

	if bob.User.IsCreator {
		t.Error("second registrant should not be the creator")
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Other", "email": "alice@example.com"})

	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email should be 409, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "passcode": "WRONGPASS"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong passcode should be 400, got %d", w.Code)
	}

	session := login(t, r, "alice@example.com", alice.Passcode)

	if session.User.ID != alice.User.ID {
		t.Errorf("logged in as the wrong user: %d", session.User.ID)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	r := setupServer(t)

	register(t, r, "Alice", "alice@example.com")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/projects"},
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodGet, "/api/auth/me"},
	}

	for _, p := range paths {
		w := doJSON(t, r, p.method, p.path, "", nil)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without a token should be 401, got %d", p.method, p.path, w.Code)
		}
	}
}

// TestCreatorMemberScenario walks the whole life of a shared project:
// A registers first and becomes creator, B joins as member, B can see but
// not touch, and deletion sweeps the tasks away.
func TestCreatorMemberScenario(t *testing.T) {
	r := setupServer(t)

	alice := register(t, r, "Alice", "alice@example.com")
	bob := register(t, r, "Bob", "bob@example.com")

	aliceToken := login(t, r, "alice@example.com", alice.Passcode).Token
	bobToken := login(t, r, "bob@example.com", bob.Passcode).Token

	// A creates a project; B, a non-creator, may not.
	w := doJSON(t, r, http.MethodPost, "/api/projects", aliceToken, gin.H{"name": "Apollo", "description": "Launch tracker"})

	if w.Code != http.StatusCreated {
		t.Fatalf("project creation failed with %d: %s", w.Code, w.Body.String())
	}

	var project struct {
		ID uint `json:"id"`
	}
	decode(t, w, &project)

	if w := doJSON(t, r, http.MethodPost, "/api/projects", bobToken, gin.H{"name": "Rogue"}); w.Code != http.StatusForbidden {
		t.Errorf("member creating a project should be 403, got %d", w.Code)
	}

	projectPath := fmt.Sprintf("/api/projects/%d", project.ID)

	// Before membership, B sees nothing.
	if w := doJSON(t, r, http.MethodGet, projectPath, bobToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("non-member viewing the project should be 403, got %d", w.Code)
	}

	// A adds B by email; duplicates and unknown emails are rejected.
	if w := doJSON(t, r, http.MethodPost, projectPath+"/members", aliceToken, gin.H{"email": "bob@example.com"}); w.Code != http.StatusCreated {
		t.Fatalf("adding member failed with %d: %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, r, http.MethodPost, projectPath+"/members", aliceToken, gin.H{"email": "bob@example.com"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate membership should be 409, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, projectPath+"/members", aliceToken, gin.H{"email": "ghost@example.com"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown email should be 404, got %d", w.Code)
	}

	// B may not add members at all.
	if w := doJSON(t, r, http.MethodPost, projectPath+"/members", bobToken, gin.H{"email": "alice@example.com"}); w.Code != http.StatusForbidden {
		t.Errorf("member adding members should be 403, got %d", w.Code)
	}

	// The resolved member list leads with the creator.
	w = doJSON(t, r, http.MethodGet, projectPath+"/members", aliceToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("listing members failed with %d: %s", w.Code, w.Body.String())
	}

	var members []struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	decode(t, w, &members)

	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	if members[0].UserID != alice.User.ID || members[0].Role != "creator" {
		t.Errorf("creator should lead the member list, got %+v", members[0])
	}

	// B can now see the project and its tasks.
	if w := doJSON(t, r, http.MethodGet, projectPath, bobToken, nil); w.Code != http.StatusOK {
		t.Errorf("member viewing the project should be 200, got %d", w.Code)
	}

	// A creates tasks; invalid status and foreign assignees are rejected
	// before anything is written.
	w = doJSON(t, r, http.MethodPost, projectPath+"/tasks", aliceToken, gin.H{
		"title":       "Stack the booster",
		"status":      "In Progress",
		"due_date":    "2026-10-01",
		"assigned_to": bob.User.ID,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("task creation failed with %d: %s", w.Code, w.Body.String())
	}

	var task struct {
		ID uint `json:"id"`
	}
	decode(t, w, &task)

	if w := doJSON(t, r, http.MethodPost, projectPath+"/tasks", aliceToken, gin.H{"title": "Fuel", "status": "Done"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid status should be 400, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, projectPath+"/tasks", aliceToken, gin.H{"title": "Fuel", "assigned_to": 9999}); w.Code != http.StatusBadRequest {
		t.Errorf("non-member assignee should be 400, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, projectPath+"/tasks", aliceToken, gin.H{"title": "Fuel the rocket"}); w.Code != http.StatusCreated {
		t.Errorf("task with default status should be created, got %d", w.Code)
	}

	// B sees every task of the project but may not mutate any, even the
	// one assigned to them.
	w = doJSON(t, r, http.MethodGet, projectPath+"/tasks", bobToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("member listing tasks failed with %d: %s", w.Code, w.Body.String())
	}

	var tasks []struct {
		ID uint `json:"id"`
	}
	decode(t, w, &tasks)

	if len(tasks) != 2 {
		t.Errorf("member should see both tasks, got %d", len(tasks))
	}

	if w := doJSON(t, r, http.MethodPost, projectPath+"/tasks", bobToken, gin.H{"title": "Sneak"}); w.Code != http.StatusForbidden {
		t.Errorf("member creating a task should be 403, got %d", w.Code)
	}

	taskPath := fmt.Sprintf("%s/tasks/%d", projectPath, task.ID)

	if w := doJSON(t, r, http.MethodPatch, taskPath, bobToken, gin.H{"title": "Mine now", "status": "Completed"}); w.Code != http.StatusForbidden {
		t.Errorf("member editing a task should be 403, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodDelete, taskPath, bobToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("member deleting a task should be 403, got %d", w.Code)
	}

	// Nobody can remove the creator, and B cannot remove anyone.
	creatorMemberPath := fmt.Sprintf("%s/members/%d", projectPath, alice.User.ID)

	if w := doJSON(t, r, http.MethodDelete, creatorMemberPath, bobToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("member removing the creator should be 403, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodDelete, creatorMemberPath, aliceToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("removing the creator should be 403 even for the creator, got %d", w.Code)
	}

	// A deletes the project: tasks vanish with it and B's view is empty.
	if w := doJSON(t, r, http.MethodDelete, projectPath, aliceToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("project deletion failed with %d: %s", w.Code, w.Body.String())
	}

	var orphanCount int64
	db.DB.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&orphanCount)

	if orphanCount != 0 {
		t.Errorf("expected no tasks referencing the deleted project, found %d", orphanCount)
	}

	w = doJSON(t, r, http.MethodGet, "/api/projects", bobToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("listing projects failed with %d: %s", w.Code, w.Body.String())
	}

	var visible []struct {
		ID uint `json:"id"`
	}
	decode(t, w, &visible)

	if len(visible) != 0 {
		t.Errorf("deleted project should no longer be visible to the member, got %v", visible)
	}
}

func TestUpdateAndRegeneratePasscode(t *testing.T) {
	r := setupServer(t)

	alice := register(t, r, "Alice", "alice@example.com")
	token := login(t, r, "alice@example.com", alice.Passcode).Token

	w := doJSON(t, r, http.MethodPatch, "/api/auth/me", token, gin.H{"name": "Alice Cooper"})

	if w.Code != http.StatusOK {
		t.Fatalf("updating user failed with %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/me/passcode", token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("regenerating passcode failed with %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Passcode string `json:"passcode"`
	}
	decode(t, w, &resp)

	if resp.Passcode == "" {
		t.Fatal("regeneration should return a new plaintext passcode")
	}

	login(t, r, "alice@example.com", resp.Passcode)
}
