package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/signmate-contracts/internal/auth"
	"github.com/nurpe/signmate-contracts/internal/cache"
	"github.com/nurpe/signmate-contracts/internal/config"
	"github.com/nurpe/signmate-contracts/internal/excel"
	"github.com/nurpe/signmate-contracts/internal/http/middleware"
	"github.com/nurpe/signmate-contracts/internal/model"
	"github.com/nurpe/signmate-contracts/internal/pdf"
	"github.com/nurpe/signmate-contracts/internal/repository"
	"github.com/nurpe/signmate-contracts/internal/service"
	"github.com/nurpe/signmate-contracts/internal/testutil"
)

type apiFixture struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.Parser
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	cfg := &config.Config{
		Environment: "test",
		HTTP:        config.HTTPConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Contracts:   config.ContractsConfig{ExportLimit: 100},
	}
	svc := service.NewContractService(
		repository.NewContractRepository(db),
		repository.NewUserRepository(db),
		cache.NopContractCache{},
		excel.NewGenerator(),
		pdf.NewGenerator(),
		cfg,
		zerolog.Nop(),
	)
	parser := auth.NewParser("test-secret")
	router := NewRouter(NewHandler(svc, zerolog.Nop()), middleware.Auth(parser), cfg, zerolog.Nop())
	return apiFixture{db: db, router: router, tokens: parser}
}

func (f apiFixture) do(t *testing.T, principal *model.Principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		token, err := f.tokens.Issue(*principal, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func as(id int64) *model.Principal {
	return &model.Principal{UserID: id, Role: model.RoleUser}
}

func decodeContract(t *testing.T, rec *httptest.ResponseRecorder) model.Contract {
	t.Helper()
	var c model.Contract
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func TestHealthIsPublic(t *testing.T) {
	f := newAPI(t)
	rec := f.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContractsRequireAuth(t *testing.T) {
	f := newAPI(t)
	rec := f.do(t, nil, http.MethodGet, "/contracts/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndReadContract(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	testutil.SeedUserWithID(t, ctx, f.db, 42, "writer")
	testutil.SeedUserWithID(t, ctx, f.db, 7, "receiver")

	rec := f.do(t, as(42), http.MethodPost, "/contracts", map[string]any{
		"contract_type": "SERVICE",
		"writer_id":     42,
		"receiver_id":   7,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeContract(t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.ContractTypeService, created.ContractType)
	assert.Equal(t, int64(42), created.WriterID)
	assert.Equal(t, int64(7), created.ReceiverID)

	rec = f.do(t, as(7), http.MethodGet, fmt.Sprintf("/contracts/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeContract(t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.ContractType, got.ContractType)
	assert.Equal(t, created.WriterID, got.WriterID)
	assert.Equal(t, created.ReceiverID, got.ReceiverID)
}

func TestCreateContractErrors(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	testutil.SeedUserWithID(t, ctx, f.db, 1, "one")
	testutil.SeedUserWithID(t, ctx, f.db, 2, "two")

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing type", map[string]any{"receiver_id": 2}, http.StatusBadRequest},
		{"undeclared type", map[string]any{"contract_type": "BARTER", "receiver_id": 2}, http.StatusBadRequest},
		{"self contract", map[string]any{"contract_type": "EMPLOYMENT", "writer_id": 1, "receiver_id": 1}, http.StatusBadRequest},
		{"unknown receiver", map[string]any{"contract_type": "SERVICE", "receiver_id": 404}, http.StatusBadRequest},
		{"foreign writer", map[string]any{"contract_type": "SERVICE", "writer_id": 2, "receiver_id": 1}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, as(1), http.MethodPost, "/contracts", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGetContractErrors(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	a := testutil.SeedUser(t, ctx, f.db, "a")
	b := testutil.SeedUser(t, ctx, f.db, "b")
	c := testutil.SeedUser(t, ctx, f.db, "c")
	contract := testutil.SeedContract(t, ctx, f.db, model.ContractTypeService, a.ID, b.ID)

	assert.Equal(t, http.StatusForbidden, f.do(t, as(c.ID), http.MethodGet, fmt.Sprintf("/contracts/%d", contract.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, as(a.ID), http.MethodGet, fmt.Sprintf("/contracts/%d", contract.ID+50), nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, as(a.ID), http.MethodGet, "/contracts/abc", nil).Code)
}

func TestUpdateContract(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	a := testutil.SeedUser(t, ctx, f.db, "a")
	b := testutil.SeedUser(t, ctx, f.db, "b")
	c := testutil.SeedUser(t, ctx, f.db, "c")
	contract := testutil.SeedContract(t, ctx, f.db, model.ContractTypeService, a.ID, b.ID)
	path := fmt.Sprintf("/contracts/%d", contract.ID)

	rec := f.do(t, as(a.ID), http.MethodPatch, path, map[string]any{
		"contract_type": "lease",
		"receiver_id":   c.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeContract(t, rec)
	assert.Equal(t, model.ContractTypeLease, updated.ContractType)
	assert.Equal(t, c.ID, updated.ReceiverID)

	assert.Equal(t, http.StatusForbidden, f.do(t, as(c.ID), http.MethodPatch, path, map[string]any{"contract_type": "SALE"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, as(a.ID), http.MethodPatch, path, map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, as(a.ID), http.MethodPatch, path, map[string]any{"receiver_id": 9999}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, as(a.ID), http.MethodPatch, fmt.Sprintf("/contracts/%d", contract.ID+50), map[string]any{"contract_type": "SALE"}).Code)
}

func TestListContracts(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	a := testutil.SeedUser(t, ctx, f.db, "a")
	b := testutil.SeedUser(t, ctx, f.db, "b")
	testutil.SeedContract(t, ctx, f.db, model.ContractTypeService, a.ID, b.ID)
	testutil.SeedContract(t, ctx, f.db, model.ContractTypeNDA, b.ID, a.ID)

	rec := f.do(t, as(a.ID), http.MethodGet, "/contracts?type=nda", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body listContractsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Items, 1)
	assert.Equal(t, model.ContractTypeNDA, body.Items[0].ContractType)

	assert.Equal(t, http.StatusBadRequest, f.do(t, as(a.ID), http.MethodGet, "/contracts?limit=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, as(a.ID), http.MethodGet, "/contracts?user_id=-3", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, as(a.ID), http.MethodGet, fmt.Sprintf("/contracts?user_id=%d", b.ID), nil).Code)
}

func TestExports(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	a := testutil.SeedUser(t, ctx, f.db, "a")
	b := testutil.SeedUser(t, ctx, f.db, "b")
	contract := testutil.SeedContract(t, ctx, f.db, model.ContractTypeService, a.ID, b.ID)

	rec := f.do(t, as(a.ID), http.MethodGet, "/contracts/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = f.do(t, as(b.ID), http.MethodGet, fmt.Sprintf("/contracts/%d/pdf", contract.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}
