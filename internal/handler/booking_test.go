package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/middleware"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

type fakeLedger struct {
	err  error
	reqs []service.AdmitRequest
}

func (f *fakeLedger) Admit(_ context.Context, req service.AdmitRequest) (service.ReservationHandle, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return service.ReservationHandle{}, f.err
	}
	b := model.Booking{
		ID:             1,
		Reference:      "ref-1",
		RoomCategoryID: req.RoomCategoryID,
		GuestID:        req.Principal.UserID,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		NumRooms:       req.NumRooms,
		NumGuests:      req.NumGuests,
		Status:         model.StatusPending,
		Currency:       "USD",
		Subtotal:       decimal.RequireFromString("600"),
		TaxAmount:      decimal.RequireFromString("42"),
		TotalAmount:    decimal.RequireFromString("642"),
		HotelPayout:    decimal.RequireFromString("545.7"),
	}
	b.CommissionAmount = decimal.RequireFromString("96.3")
	return service.ReservationHandle{BookingID: b.ID, Reference: b.Reference, Booking: b}, nil
}

type fakeLifecycle struct {
	err error
	got service.TransitionRequest
}

func (f *fakeLifecycle) Transition(_ context.Context, _ model.Principal, req service.TransitionRequest) (model.Booking, error) {
	f.got = req
	if f.err != nil {
		return model.Booking{}, f.err
	}
	return model.Booking{ID: req.BookingID, Status: req.To}, nil
}

type fakeReader struct {
	err     error
	seen    model.Principal
	booking model.Booking
}

func (f *fakeReader) Get(_ context.Context, p model.Principal, id uint64) (model.Booking, error) {
	f.seen = p
	if f.err != nil {
		return model.Booking{}, f.err
	}
	b := f.booking
	b.ID = id
	return b, nil
}

func (f *fakeReader) List(_ context.Context, p model.Principal, _ uint64, _, _ time.Time) ([]model.Booking, error) {
	f.seen = p
	if f.err != nil {
		return nil, f.err
	}
	return []model.Booking{f.booking, f.booking}, nil
}

type fakeResolver struct{ err error }

func (f *fakeResolver) Resolve(_ context.Context, id uint64, in, out time.Time) (service.Availability, error) {
	if f.err != nil {
		return service.Availability{}, f.err
	}
	return service.Availability{
		RoomCategoryID: id,
		CheckIn:        in,
		CheckOut:       out,
		TotalRooms:     5,
		AvailableRooms: 2,
		Nights:         []time.Time{in, in.AddDate(0, 0, 1)},
		PerNight:       map[string]int{in.Format(time.DateOnly): 2, in.AddDate(0, 0, 1).Format(time.DateOnly): 4},
	}, nil
}

type fakeIdempotency struct {
	mu        sync.Mutex
	keys      map[string]bool
	forgotten []string
}

func (f *fakeIdempotency) Reserve(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotency) Forget(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	f.forgotten = append(f.forgotten, key)
	return nil
}

type fixture struct {
	h         *BookingHandler
	ledger    *fakeLedger
	lifecycle *fakeLifecycle
	reader    *fakeReader
	resolver  *fakeResolver
	idem      *fakeIdempotency
}

func newFixture() *fixture {
	f := &fixture{
		ledger:    &fakeLedger{},
		lifecycle: &fakeLifecycle{},
		reader:    &fakeReader{booking: model.Booking{Status: model.StatusConfirmed, CheckIn: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)}},
		resolver:  &fakeResolver{},
		idem:      &fakeIdempotency{},
	}
	f.h = NewBookingHandler(f.ledger, f.lifecycle, f.reader, f.resolver, f.idem, zap.NewNop())
	return f
}

type call struct {
	method, target, body string
	params               map[string]string
	header               map[string]string
	principal            model.Principal
}

func do(t *testing.T, h echo.HandlerFunc, cl call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(cl.method, cl.target, strings.NewReader(cl.body))
	if cl.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range cl.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range cl.params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	middleware.SetPrincipal(c, cl.principal)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

var guest = model.Principal{UserID: 7, Role: model.RoleGuest}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	rec, body := do(t, f.h.CreateBooking, call{
		method:    http.MethodPost,
		target:    "/v1/bookings",
		body:      `{"room_category_id":1,"check_in":"2025-03-10","check_out":"2025-03-13","num_rooms":2,"num_guests":3}`,
		principal: guest,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["status"] != "pending" || body["total_amount"] != "642.00" || body["hotel_payout"] != "545.70" {
		t.Errorf("unexpected body %v", body)
	}
	if body["nights"] != float64(3) || body["check_out"] != "2025-03-13" {
		t.Errorf("unexpected stay in %v", body)
	}
	req := f.ledger.reqs[0]
	if req.NumRooms != 2 || req.NumGuests != 3 || req.Principal != guest {
		t.Errorf("unexpected admit request %+v", req)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	for name, payload := range map[string]string{
		"missing category": `{"check_in":"2025-03-10","check_out":"2025-03-13","num_rooms":1,"num_guests":1}`,
		"bad date":         `{"room_category_id":1,"check_in":"10/03/2025","check_out":"2025-03-13","num_rooms":1,"num_guests":1}`,
		"malformed json":   `{"room_category_id":`,
	} {
		f := newFixture()
		rec, _ := do(t, f.h.CreateBooking, call{method: http.MethodPost, target: "/v1/bookings", body: payload})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
		if len(f.ledger.reqs) != 0 {
			t.Errorf("%s: ledger must not be called", name)
		}
	}
}

func TestCreateBooking_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&model.InsufficientInventoryError{RoomCategoryID: 1, Night: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Requested: 2, Available: 1}, http.StatusConflict},
		{&model.InvalidRangeError{}, http.StatusBadRequest},
		{&model.NotFoundError{Kind: "room category", ID: 1}, http.StatusNotFound},
		{&model.ContentionError{Op: "admit", Attempts: 3, Err: errors.New("deadlock")}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := newFixture()
		f.ledger.err = tc.err
		rec, body := do(t, f.h.CreateBooking, call{
			method: http.MethodPost,
			target: "/v1/bookings",
			body:   `{"room_category_id":1,"check_in":"2025-03-10","check_out":"2025-03-13","num_rooms":2,"num_guests":2}`,
		})
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		switch tc.code {
		case http.StatusConflict:
			if body["available_rooms"] != float64(1) || body["night"] != "2025-03-11" {
				t.Errorf("expected available rooms in body, got %v", body)
			}
		case http.StatusServiceUnavailable:
			if rec.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header")
			}
		}
	}
}

func TestCreateBooking_IdempotencyKey(t *testing.T) {
	f := newFixture()
	cl := call{
		method: http.MethodPost,
		target: "/v1/bookings",
		body:   `{"room_category_id":1,"check_in":"2025-03-10","check_out":"2025-03-13","num_rooms":1,"num_guests":1}`,
		header: map[string]string{"Idempotency-Key": "abc"},
	}
	if rec, _ := do(t, f.h.CreateBooking, cl); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec, body := do(t, f.h.CreateBooking, cl)
	if rec.Code != http.StatusConflict || body["error"] != "duplicate_request" {
		t.Errorf("expected duplicate 409, got %d %v", rec.Code, body)
	}
	if len(f.ledger.reqs) != 1 {
		t.Errorf("replay must not reach the ledger, got %d calls", len(f.ledger.reqs))
	}

	cl.header = map[string]string{"Idempotency-Key": "def"}
	f.ledger.err = &model.InsufficientInventoryError{Requested: 1}
	if rec, _ := do(t, f.h.CreateBooking, cl); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if len(f.idem.forgotten) != 1 || f.idem.forgotten[0] != "def" {
		t.Errorf("failed admission must free its key, got %v", f.idem.forgotten)
	}
}

func TestGetAvailability(t *testing.T) {
	f := newFixture()
	rec, body := do(t, f.h.GetAvailability, call{
		method: http.MethodGet,
		target: "/v1/room-categories/1/availability?check_in=2025-03-10&check_out=2025-03-12",
		params: map[string]string{"id": "1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["available_rooms"] != float64(2) || body["total_rooms"] != float64(5) {
		t.Errorf("unexpected body %v", body)
	}
	nights, _ := body["nights"].([]any)
	if len(nights) != 2 {
		t.Fatalf("expected 2 nights, got %v", body["nights"])
	}
	if first := nights[0].(map[string]any); first["date"] != "2025-03-10" || first["available_rooms"] != float64(2) {
		t.Errorf("unexpected first night %v", first)
	}

	rec, _ = do(t, f.h.GetAvailability, call{
		method: http.MethodGet,
		target: "/v1/room-categories/x/availability?check_in=2025-03-10&check_out=2025-03-12",
		params: map[string]string{"id": "x"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
	rec, _ = do(t, f.h.GetAvailability, call{
		method: http.MethodGet,
		target: "/v1/room-categories/1/availability?check_in=2025-03-10",
		params: map[string]string{"id": "1"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing check_out: expected 400, got %d", rec.Code)
	}
}

func TestTransitionBooking(t *testing.T) {
	f := newFixture()
	owner := model.Principal{UserID: 42, Role: model.RoleHotelier}
	rec, body := do(t, f.h.TransitionBooking, call{
		method:    http.MethodPost,
		target:    "/v1/bookings/5/status",
		body:      `{"status":"Cancelled","reason":"guest request","expected_status":"confirmed"}`,
		params:    map[string]string{"id": "5"},
		principal: owner,
	})
	if rec.Code != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("expected 200 cancelled, got %d %v", rec.Code, body)
	}
	want := service.TransitionRequest{BookingID: 5, To: model.StatusCancelled, Reason: "guest request", Expected: model.StatusConfirmed}
	if f.lifecycle.got != want {
		t.Errorf("expected %+v, got %+v", want, f.lifecycle.got)
	}

	rec, _ = do(t, f.h.TransitionBooking, call{
		method: http.MethodPost, target: "/v1/bookings/5/status", body: `{"status":"archived"}`,
		params: map[string]string{"id": "5"}, principal: owner,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: expected 400, got %d", rec.Code)
	}

	f.lifecycle.err = &model.InvalidTransitionError{From: model.StatusCheckedOut, To: model.StatusCancelled}
	rec, body = do(t, f.h.TransitionBooking, call{
		method: http.MethodPost, target: "/v1/bookings/5/status", body: `{"status":"cancelled","reason":"x"}`,
		params: map[string]string{"id": "5"}, principal: owner,
	})
	if rec.Code != http.StatusConflict || body["from"] != "checked_out" {
		t.Errorf("invalid transition: expected 409 naming the current status, got %d %v", rec.Code, body)
	}

	f.lifecycle.err = model.ErrForbidden
	rec, _ = do(t, f.h.TransitionBooking, call{
		method: http.MethodPost, target: "/v1/bookings/5/status", body: `{"status":"confirmed"}`,
		params: map[string]string{"id": "5"}, principal: owner,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("forbidden: expected 403, got %d", rec.Code)
	}
}

func TestGetAndListBookings(t *testing.T) {
	f := newFixture()
	rec, body := do(t, f.h.GetBooking, call{
		method: http.MethodGet, target: "/v1/bookings/9", params: map[string]string{"id": "9"}, principal: guest,
	})
	if rec.Code != http.StatusOK || body["id"] != float64(9) || f.reader.seen != guest {
		t.Errorf("get: unexpected %d %v (principal %+v)", rec.Code, body, f.reader.seen)
	}

	rec, body = do(t, f.h.ListBookings, call{
		method: http.MethodGet, target: "/v1/room-categories/1/bookings?from=2025-03-01&to=2025-04-01",
		params: map[string]string{"id": "1"}, principal: guest,
	})
	if rec.Code != http.StatusOK || body["count"] != float64(2) {
		t.Errorf("list: unexpected %d %v", rec.Code, body)
	}

	f.reader.err = &model.NotFoundError{Kind: "booking", ID: 9}
	rec, _ = do(t, f.h.GetBooking, call{
		method: http.MethodGet, target: "/v1/bookings/9", params: map[string]string{"id": "9"}, principal: guest,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing booking: expected 404, got %d", rec.Code)
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestReady(t *testing.T) {
	rec, _ := do(t, Ready(pinger{}), call{method: http.MethodGet, target: "/readyz"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, Ready(pinger{err: errors.New("down")}), call{method: http.MethodGet, target: "/readyz"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
