package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/config"
	"github.com/mbolis/field-survey/database"
	"github.com/mbolis/field-survey/gateway"
	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/network"
	"github.com/mbolis/field-survey/notice"
	"github.com/mbolis/field-survey/storage"
)

const surveyUUID = "5b1f3c3e-8a43-4d0f-9c55-2b6f4f0d9a11"

func newServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "received.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return Wire(app.NewApp(db, config.Config{Endpoint: "uploadSurveys"}))
}

func survey(uuid string) *model.Form {
	return &model.Form{
		ID:   1,
		Name: "Producer census",
		Questions: []model.Question{
			{ID: "1", Text: "Name", Type: "text", Required: true},
		},
		Answers:     map[string]string{"1": "Ana"},
		UUID:        uuid,
		Beneficiary: &model.Beneficiary{ID: 7, Specialized: true},
		Position:    "-33.45,-70.66",
	}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/uploadSurveys", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newServer(t), "/api/health")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestReceiveSurveyIsIdempotent(t *testing.T) {
	h := newServer(t)
	body, err := json.Marshal(survey(surveyUUID))
	require.NoError(t, err)

	var first, second struct {
		UUID      string `json:"uuid"`
		Duplicate bool   `json:"duplicate"`
	}

	rec := post(t, h, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, surveyUUID, first.UUID)
	assert.False(t, first.Duplicate)

	rec = post(t, h, string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Duplicate)

	var list struct {
		Surveys []Received `json:"surveys"`
	}
	rec = get(t, h, "/api/surveys")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Surveys, 1)
	assert.Equal(t, surveyUUID, list.Surveys[0].UUID)
	assert.Equal(t, 1, list.Surveys[0].FormID)
	require.NotNil(t, list.Surveys[0].BeneficiaryID)
	assert.EqualValues(t, 7, *list.Surveys[0].BeneficiaryID)
	assert.Equal(t, "-33.45,-70.66", list.Surveys[0].Position)
}

func TestGetReceived(t *testing.T) {
	h := newServer(t)
	body, err := json.Marshal(survey(surveyUUID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, post(t, h, string(body)).Code)

	rec := get(t, h, "/api/surveys/"+surveyUUID)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Form
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Ana", got.Answers["1"])
	assert.Equal(t, 7, got.Beneficiary.ID)

	rec = get(t, h, "/api/surveys/00000000-0000-4000-8000-000000000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceiveSurveyRejectsInvalid(t *testing.T) {
	h := newServer(t)

	missing := survey(surveyUUID)
	missing.Answers = map[string]string{}
	noUUID := survey("")
	badUUID := survey("not-a-uuid")
	noID := survey(surveyUUID)
	noID.ID = 0

	for name, f := range map[string]*model.Form{
		"missing answer": missing,
		"no uuid":        noUUID,
		"bad uuid":       badUUID,
		"no form id":     noID,
	} {
		t.Run(name, func(t *testing.T) {
			body, err := json.Marshal(f)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, post(t, h, string(body)).Code)
		})
	}

	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"uuid":`).Code)

	rec := get(t, h, "/api/surveys")
	assert.JSONEq(t, `{"surveys":[]}`, rec.Body.String())
}

func TestSyncAgainstServer(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(newServer(t))
	defer srv.Close()

	surveys := ledger.NewSurveys(storage.New(storage.NewMemory()), "uploadSurveys", ledger.Remote{
		Gateway:  gateway.NewHTTP(srv.URL+"/api", 5*time.Second),
		Endpoint: "uploadSurveys",
		Monitor:  network.NewProbe(srv.URL+"/api/health", 5*time.Second),
		Notifier: &notice.Recorder{},
	})
	require.NoError(t, surveys.Push(ctx, survey(surveyUUID)))
	incomplete := survey("6c2a4d4f-9b54-4e1a-8d66-3c7a5a1e0b22")
	incomplete.Answers = nil
	require.NoError(t, surveys.Push(ctx, incomplete))

	report, err := surveys.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, report.Offline)
	assert.Equal(t, []string{surveyUUID}, report.Synced)
	assert.Equal(t, []string{incomplete.UUID}, report.Failed)

	got, _ := surveys.Get(surveyUUID)
	assert.True(t, got.Synchronized)
}

func TestHandlerGatewayReachesRoutes(t *testing.T) {
	gw := gateway.NewHandler("/api", newServer(t))

	status, err := gw.Post(context.Background(), "uploadSurveys", survey(surveyUUID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = gw.Post(context.Background(), "uploadSurveys", survey(surveyUUID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = gw.Post(context.Background(), "elsewhere", survey(surveyUUID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
