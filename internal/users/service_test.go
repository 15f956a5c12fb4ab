package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/store"
	"github.com/hapsayhub/backend/pkg/utils"
)

func newService(t *testing.T, hash bool) (*Service, *bridge.Bridge[models.User]) {
	t.Helper()
	m := store.NewMemoryMedium()
	u := bridge.New(store.New(m, store.KeyUsers, models.UserKey), nil, nil)
	r := bridge.New(store.New(m, store.KeyRoles, models.CategoryKey), nil, nil)
	svc := NewService(u, r, hash, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, u
}

func req(name, email, login string) SaveRequest {
	return SaveRequest{Name: name, Email: email, LoginID: login, Password: "secret", Role: "Viewer", CanLogin: true}
}

func TestSave_DuplicateEmailRejected(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()
	ana, err := svc.Save(ctx, 0, req("Ana", "ana@example.com", "ana"))
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, ana.Status)

	_, err = svc.Save(ctx, 0, req("Ben", "ANA@example.com", "ben"))
	var de *models.DuplicateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "email", de.Field)

	// Editing the same record with its own email is accepted.
	edited, err := svc.Save(ctx, ana.ID, req("Ana Cruz", "ana@example.com", "ana"))
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", edited.Name)
}

func TestSave_DuplicateFieldOrder(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()
	_, err := svc.Save(ctx, 0, req("Ana", "ana@example.com", "ana"))
	require.NoError(t, err)

	var de *models.DuplicateError
	_, err = svc.Save(ctx, 0, req("ana", "ana@example.com", "ana"))
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "name", de.Field)

	_, err = svc.Save(ctx, 0, req("Ben", "ben@example.com", "ANA"))
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "loginID", de.Field)
}

func TestSave_ValidationAndUnknownID(t *testing.T) {
	svc, _ := newService(t, false)
	r := req("Ana", "ana@example.com", "ana")
	r.Password = ""
	_, err := svc.Save(context.Background(), 0, r)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "password", ve.Field)

	_, err = svc.Save(context.Background(), 77, req("Ana", "ana@example.com", "ana"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleKeepsStatusOnEdit(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()
	u, err := svc.Save(ctx, 0, req("Ana", "ana@example.com", "ana"))
	require.NoError(t, err)
	id := models.UserKey(models.User{ID: u.ID})

	toggled, err := svc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, toggled.Status)

	edited, err := svc.Save(ctx, u.ID, req("Ana", "ana@example.com", "ana2"))
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, edited.Status)

	toggled, err = svc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, toggled.Status)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), models.ErrNotFound)
}

func TestSave_HashesPasswordsWhenEnabled(t *testing.T) {
	svc, users := newService(t, true)
	ctx := context.Background()
	u, err := svc.Save(ctx, 0, req("Ana", "ana@example.com", "ana"))
	require.NoError(t, err)

	stored, err := users.Find(ctx, models.UserKey(models.User{ID: u.ID}))
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.Password)
	assert.True(t, utils.CheckPassword("secret", stored.Password))

	// Re-submitting the stored hash keeps it as is.
	r := req("Ana", "ana@example.com", "ana")
	r.Password = stored.Password
	_, err = svc.Save(ctx, u.ID, r)
	require.NoError(t, err)
	again, err := users.Find(ctx, models.UserKey(models.User{ID: u.ID}))
	require.NoError(t, err)
	assert.Equal(t, stored.Password, again.Password)
}

func TestRoles(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()
	roles, err := svc.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRoles, roles)

	_, err = svc.AddRole(ctx, "volunteer")
	var de *models.DuplicateError
	assert.True(t, errors.As(err, &de))

	roles, err = svc.AddRole(ctx, "Usher")
	require.NoError(t, err)
	assert.Equal(t, "Usher", roles[len(roles)-1])

	stored, err := svc.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(models.DefaultRoles)+1)
}

func TestHandler_ExportAndConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newService(t, false)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/users", h.Create)
	r.GET("/users/export", h.Export)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/export", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := `{"name":"Ana","email":"ana@example.com","loginID":"ana","password":"x","role":"Admin","canLogin":true}`
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Name,Email,LoginID,Role,Status,Login Access\n\"Ana\",\"ana@example.com\",\"ana\",\"Admin\",\"Active\",Granted", w.Body.String())
}
