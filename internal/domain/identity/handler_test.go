package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
)

func newRequest(e *echo.Echo, method, body string, actor *access.Actor) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor != nil {
		req = req.WithContext(access.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func setID(c echo.Context, id int64) {
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(id, 10))
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc := f.actor(t, 1)

	c, _ := newRequest(e, http.MethodGet, "", &doc)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assertAppErr(t, h.GetPatient(c), 400, "Invalid patient ID")
}

func TestHandler_GetPatient_OtherPatient(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	alice, brian := f.actor(t, 2), f.actor(t, 3)

	c, _ := newRequest(e, http.MethodGet, "", &alice)
	setID(c, *brian.PatientID)
	assertAppErr(t, h.GetPatient(c), 403, access.MsgOwnProfileOnly)
}

func TestHandler_GetPatient_Doctor(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc, brian := f.actor(t, 1), f.actor(t, 3)

	c, rec := newRequest(e, http.MethodGet, "", &doc)
	setID(c, *brian.PatientID)
	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["user_name"] != "Brian Kamau" || body["user"].(float64) != 3 {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc, brian := f.actor(t, 1), f.actor(t, 3)

	c, rec := newRequest(e, http.MethodDelete, "", &doc)
	setID(c, *brian.PatientID)
	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_SetupPatient_Twice(t *testing.T) {
	f := newFixture()
	f.store.addUser(5, "Dan", "Ochieng", access.RolePatient)
	h, e := NewHandler(f.svc), echo.New()

	actor := f.actor(t, 5)
	c, rec := newRequest(e, http.MethodPost, `{"blood_type":"A+","user":42}`, &actor)
	if err := h.SetupPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"user":5`) {
		t.Errorf("owner must be the caller: %s", rec.Body.String())
	}

	actor = f.actor(t, 5)
	c, _ = newRequest(e, http.MethodPost, `{}`, &actor)
	assertAppErr(t, h.SetupPatient(c), 400, access.MsgProfileExists)
}

func TestHandler_DoctorPatients(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc := f.actor(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/?search=kamau", nil)
	req = req.WithContext(access.WithActor(req.Context(), doc))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DoctorPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["full_name"] != "Brian Kamau" {
		t.Fatalf("unexpected rows %v", rows)
	}
	for _, key := range []string{"patient_id", "email", "phone", "age", "last_appointment_date", "blood_type"} {
		if _, ok := rows[0][key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if rows[0]["age"] != nil {
		t.Errorf("expected null age, got %v", rows[0]["age"])
	}
}

func TestHandler_DoctorPatientDetail_Shape(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc, alice := f.actor(t, 1), f.actor(t, 2)

	c, rec := newRequest(e, http.MethodGet, "", &doc)
	setID(c, *alice.PatientID)
	if err := h.DoctorPatientDetail(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		UserInfo           map[string]any `json:"user_info"`
		FullMedicalHistory map[string]any `json:"full_medical_history"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.UserInfo["full_name"] != "Alice Wanjiru" || body.UserInfo["date_of_birth"] != "1990-06-16" {
		t.Errorf("unexpected user_info %v", body.UserInfo)
	}
	if body.FullMedicalHistory["allergies"] != "penicillin" {
		t.Errorf("unexpected medical history %v", body.FullMedicalHistory)
	}
}

func TestHandler_DoctorUpdatePatient_RequiresDoctor(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	alice := f.actor(t, 2)

	c, _ := newRequest(e, http.MethodPatch, `{"allergies":"none"}`, &alice)
	setID(c, *alice.PatientID)
	assertAppErr(t, h.DoctorUpdatePatient(c), 403, access.MsgDoctorRequired)
}

func TestHandler_Specialties(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()

	c, rec := newRequest(e, http.MethodGet, "", nil)
	if err := h.ListSpecialties(c); err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	json.Unmarshal(rec.Body.Bytes(), &m)
	if m["cardio"] != "Cardiologist" {
		t.Errorf("unexpected specialties %v", m)
	}
}

func TestHandler_DoctorsBySpecialty_Empty(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()

	c, rec := newRequest(e, http.MethodGet, "", nil)
	c.SetParamNames("name")
	c.SetParamValues("DENTIST")
	if err := h.DoctorsBySpecialty(c); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected an empty array, got %s", rec.Body.String())
	}
}

func TestHandler_GetDoctor_InvalidID(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()

	c, _ := newRequest(e, http.MethodGet, "", nil)
	c.SetParamNames("id")
	c.SetParamValues("-3")
	assertAppErr(t, h.GetDoctor(c), 400, "Invalid doctor ID")
}

func TestHandler_Dashboard(t *testing.T) {
	f := newFixture()
	f.seed(t)
	h, e := NewHandler(f.svc), echo.New()
	doc := f.actor(t, 1)

	c, rec := newRequest(e, http.MethodGet, "", &doc)
	if err := h.Dashboard(c); err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["patient"] != nil || body["doctor"] == nil || body["role_mismatch"] != false {
		t.Errorf("unexpected dashboard %v", body)
	}
}
