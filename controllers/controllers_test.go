package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/database"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/realtime"
	"github.com/yeremiapane/restaurant-booking/router"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success    bool              `json:"success"`
	Code       string            `json:"code"`
	Data       json.RawMessage   `json:"data"`
	Pagination *utils.Pagination `json:"pagination"`
	Errors     []string          `json:"errors"`
}

type fixture struct {
	router    http.Handler
	db        *gorm.DB
	uploadDir string
	token     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	dir := t.TempDir()
	cfg := &config.Config{
		Timezone: time.UTC,
		Upload: config.UploadConfig{
			Backend: "local", Dir: dir, BaseURL: "http://localhost:8080/uploads/menu_images", MaxSize: 1 << 20,
		},
		Booking: config.BookingConfig{
			OpenTime: "10:00", CloseTime: "21:30", MaxDaysAhead: 30, MaxGuests: 20, TotalTables: 20, SlotMinutes: 90,
		},
		Pagination: config.PaginationConfig{DefaultLimit: 10, MaxLimit: 100},
	}

	tokens := utils.NewTokenManager("controllers-secret", "test", time.Hour, time.Hour)
	store, err := storage.New(context.Background(), cfg.Upload)
	require.NoError(t, err)
	rules, err := services.NewBookingRules(cfg.Booking, cfg.Timezone)
	require.NoError(t, err)
	hub := realtime.NewHub()

	r := router.SetupRouter(router.Deps{
		Config:       cfg,
		DB:           db,
		Tokens:       tokens,
		Hub:          hub,
		Storage:      store,
		Reservations: services.NewReservationService(db, rules, cfg.Booking, hub),
		Auth:         services.NewAuthService(db, tokens),
		Chatbot:      services.NewChatbotService(db, time.Second, rules),
	})

	pair, err := tokens.GenerateTokenPair(1, models.RoleStaff)
	require.NoError(t, err)
	return &fixture{router: r, db: db, uploadDir: dir, token: pair.AccessToken}
}

func (f *fixture) send(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, auth bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	return f.send(t, req)
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestCategoryCRUD(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Món chính"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := f.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Món chính", "description": "Cơm, phở"}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var cat models.Category
	decode(t, env, &cat)

	w, env = f.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "món CHÍNH"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.CodeConflict, env.Code)

	w, env = f.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "X"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Errors, "name must be between 2 and 100 characters")

	w, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/categories/%d", cat.ID), map[string]string{"description": "Đổi mô tả"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &cat)
	assert.Equal(t, "Món chính", cat.Name)
	assert.Equal(t, "Đổi mô tả", cat.Description)

	require.NoError(t, f.db.Create(&models.Food{CategoryID: cat.ID, Name: "Phở bò", Price: 50000}).Error)
	w, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/categories?search=chính", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	w, _ = f.do(t, http.MethodGet, "/api/categories/999", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoodCRUDAndFilters(t *testing.T) {
	f := newFixture(t)
	drinks := models.Category{Name: "Đồ uống"}
	mains := models.Category{Name: "Món chính"}
	require.NoError(t, f.db.Create(&drinks).Error)
	require.NoError(t, f.db.Create(&mains).Error)

	w, env := f.do(t, http.MethodPost, "/api/foods", map[string]interface{}{
		"name": "Trà đá", "price": 5000, "stock": 0, "category_id": drinks.ID,
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, env.Errors)

	w, env = f.do(t, http.MethodPost, "/api/foods", map[string]interface{}{
		"name": "Bún chả 100%", "price": 55000, "stock": 10, "category_id": mains.ID,
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var food struct {
		models.Food
		PriceLabel string `json:"price_label"`
	}
	decode(t, env, &food)
	assert.Equal(t, "55.000 ₫", food.PriceLabel)
	require.NotNil(t, food.Category)
	assert.Equal(t, "Món chính", food.Category.Name)

	w, env = f.do(t, http.MethodPost, "/api/foods", map[string]interface{}{
		"name": "Ghost", "price": 1000, "category_id": 999,
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Errors, "category_id does not reference an existing category")

	w, env = f.do(t, http.MethodPost, "/api/foods", map[string]interface{}{"name": "Bad", "price": -1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, env.Errors, 2)

	cases := map[string]int64{
		"/api/foods":                    2,
		"/api/foods?available=true":     1,
		"/api/foods?available=false":    1,
		"/api/foods?minPrice=10000":     1,
		"/api/foods?maxPrice=10000":     1,
		"/api/foods?maxPrice=999999999": 2,
		"/api/foods?search=uống":        1,
		"/api/foods?search=%25":         1,
		"/api/foods?search=_":           0,
	}
	cases[fmt.Sprintf("/api/foods?category=%d", drinks.ID)] = 1
	for path, want := range cases {
		w, env := f.do(t, http.MethodGet, path, nil, false)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.EqualValues(t, want, env.Pagination.Total, path)
	}

	w, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/foods/%d", food.ID), map[string]interface{}{"stock": 3}, true)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &food)
	assert.Equal(t, 3, food.Stock)
	assert.Equal(t, "Bún chả 100%", food.Name)

	w, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/foods/%d", food.ID), map[string]interface{}{"bogus": 1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/foods/%d", food.ID), nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/foods/%d", food.ID), nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerCRUD(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "Trần Thị B", "phone": "0987 654 321"}, true)
	require.Equal(t, http.StatusCreated, w.Code, env.Errors)
	var cust models.Customer
	decode(t, env, &cust)
	assert.Equal(t, "0987654321", cust.Phone)

	w, _ = f.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "Người Khác", "phone": "0987654321"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = f.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "B4d", "phone": "12"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, env.Errors, 2)

	w, env = f.do(t, http.MethodPut, fmt.Sprintf("/api/customers/%d", cust.ID), map[string]string{"email": "b@example.com"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, env, &cust)
	assert.Equal(t, "b@example.com", cust.Email)

	w, env = f.do(t, http.MethodGet, "/api/customers?search=654", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	w, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/customers/%d", cust.ID), nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/customers/%d", cust.ID), nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "photo.txt")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	body, ct := multipartImage(t, pngData.Bytes())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w, env := f.send(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	decode(t, env, &out)
	assert.True(t, storage.ValidKey(out.Key))
	assert.Equal(t, ".png", filepath.Ext(out.Key))
	assert.Equal(t, "http://localhost:8080/uploads/menu_images/"+out.Key, out.URL)
	_, err := os.Stat(filepath.Join(f.uploadDir, out.Key))
	require.NoError(t, err)

	body, ct = multipartImage(t, []byte("just some text"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w, _ = f.send(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/upload/passwd", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = f.do(t, http.MethodDelete, "/api/upload/"+out.Key, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodDelete, "/api/upload/"+out.Key, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatbotFallback(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/chatbot", map[string]string{"message": "Mấy giờ mở cửa?"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	var reply services.ChatReply
	decode(t, env, &reply)
	assert.True(t, reply.Fallback)
	assert.Equal(t, services.FallbackReply, reply.Reply)

	w, _ = f.do(t, http.MethodPost, "/api/chatbot", map[string]string{"message": ""}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
