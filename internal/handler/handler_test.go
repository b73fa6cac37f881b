package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	brandingUC "github.com/fekuna/omnipos-menu-service/internal/branding/usecase"
	catalogUC "github.com/fekuna/omnipos-menu-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-menu-service/internal/localstore"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/realtime"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/style"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUploader struct {
	paths []string
}

func (u *fakeUploader) Upload(_ context.Context, _ storage.File, logicalPath, bucket string) (string, error) {
	u.paths = append(u.paths, logicalPath)
	return "https://cdn.test/" + bucket + "/" + logicalPath, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Warning string          `json:"warning"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	app      *fiber.App
	uploader *fakeUploader
	head     *style.Head
	notices  *notice.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	blobs, err := localstore.NewFileBlobStore(t.TempDir())
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cats, err := localstore.OpenCategoryRepository(ctx, blobs, node)
	require.NoError(t, err)
	dishes, err := localstore.OpenDishRepository(ctx, blobs, node)
	require.NoError(t, err)

	hub := realtime.NewHub()
	rec := notice.NewRecorder(50)
	up := &fakeUploader{}
	log := logger.NewNop()

	cat := catalogUC.NewCatalogStore(cats, dishes, hub, up, rec, log)
	brand := brandingUC.NewBrandingStore(localstore.NewBrandingRepository(blobs, node), hub, up, rec, log)
	require.NoError(t, cat.Init(ctx))
	require.NoError(t, brand.Init(ctx))
	t.Cleanup(cat.Dispose)
	t.Cleanup(brand.Dispose)

	head := style.NewHead()
	style.NewApplier(head).Attach(brand)

	h := NewMenuHandler(cat, brand, head, rec, log)
	return &testEnv{app: NewApp(h, AppConfig{JWTSecret: testSecret, AllowOrigins: "*"}), uploader: up, head: head, notices: rec}
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, req *http.Request, bearer string) (*http.Response, envelope) {
	t.Helper()
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp, env
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthAndThemes(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/themes", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var themes []theme.Theme
	require.NoError(t, json.Unmarshal(body.Data, &themes))
	assert.Len(t, themes, len(theme.All()))
}

func TestPublicCategories(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cats []model.Category
	require.NoError(t, json.Unmarshal(body.Data, &cats))
	require.Len(t, cats, 5)
	assert.Equal(t, "Arroces", cats[0].Name)
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	in := map[string]any{"name": "Paella", "categoryId": "arroces", "price": "18.50"}

	resp, _ := env.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/dishes", in), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/dishes", in), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/dishes", in), token(t, "viewer"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestCreateDishFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := token(t, "admin")

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/dishes", map[string]any{
		"name": "Paella", "categoryId": "arroces", "price": "18.50", "allergens": "Gluten, Marisco",
	}), admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	var created model.Dish
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, 18.5, created.Price)
	assert.Equal(t, []string{"Gluten", "Marisco"}, []string(created.Allergens))
	assert.True(t, created.IsVisible)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories/arroces/dishes", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dishes []model.Dish
	require.NoError(t, json.Unmarshal(body.Data, &dishes))
	require.Len(t, dishes, 1)
	assert.Equal(t, created.ID, dishes[0].ID)

	resp, body = env.do(t, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/dishes/"+created.ID+"/visibility", nil), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled model.Dish
	require.NoError(t, json.Unmarshal(body.Data, &toggled))
	assert.False(t, toggled.IsVisible)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories/arroces/dishes", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body.Data))
}

func TestCreateDishMultipart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Arroz negro"))
	require.NoError(t, w.WriteField("categoryId", "arroces"))
	require.NoError(t, w.WriteField("price", "17"))
	part, err := w.CreateFormFile("image", "negro.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dishes", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, body := env.do(t, req, token(t, "admin"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	var created model.Dish
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Len(t, env.uploader.paths, 1)
	assert.Equal(t, "dishes/"+created.ID+"/negro.jpg", env.uploader.paths[0])
	require.NotNil(t, created.ImageURL)
	assert.True(t, strings.HasSuffix(*created.ImageURL, "/negro.jpg"))
}

func TestInvalidInputAndMissingRecords(t *testing.T) {
	env := newTestEnv(t)
	admin := token(t, "admin")

	resp, _ := env.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/dishes", map[string]any{
		"name": "Paella", "categoryId": "arroces", "price": "cheap",
	}), admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/dishes/missing/visibility", nil), admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, jsonRequest(http.MethodPut, "/api/v1/admin/branding/colors", map[string]any{"value": "x"}), admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBrandingUpdateRestylesDocument(t *testing.T) {
	env := newTestEnv(t)
	admin := token(t, "admin")

	resp, body := env.do(t, jsonRequest(http.MethodPut, "/api/v1/admin/branding/themeId", map[string]any{"value": "ocean"}), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	resp, _ = env.do(t, jsonRequest(http.MethodPut, "/api/v1/admin/branding/restaurantName", map[string]any{"value": "Casa Pepe"}), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/branding/theme.css", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	css, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/css")
	assert.Contains(t, string(css), theme.GetThemeByID("ocean").Light.Primary)
	assert.Equal(t, "Casa Pepe", env.head.Title())

	resp, body = env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/branding/reset", nil), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A Chabola", env.head.Title())
}

func TestUploadLogo(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/branding/logo", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, body := env.do(t, req, token(t, "admin"))
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)

	require.Len(t, env.uploader.paths, 1)
	assert.True(t, strings.HasPrefix(env.uploader.paths[0], "branding/logo-"))
	assert.True(t, strings.HasSuffix(env.head.Favicon(), ".png"))
}

func TestNoticesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/dishes/x", nil), token(t, "viewer"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/notices", nil), token(t, "viewer"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var notices []notice.Notice
	require.NoError(t, json.Unmarshal(body.Data, &notices))
	require.Len(t, notices, 1)
	assert.Equal(t, "delete_dish", notices[0].Action)
}
