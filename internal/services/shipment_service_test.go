package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aayush-1o/truck/internal/lifecycle"
	"github.com/aayush-1o/truck/internal/models"
)

// In-memory fakes mirroring the repository semantics, shared by the service
// tests in this package.

type fakeShipmentStore struct {
	nextID    int64
	shipments map[int64]*models.Shipment
}

func newFakeShipmentStore() *fakeShipmentStore {
	return &fakeShipmentStore{shipments: map[int64]*models.Shipment{}}
}

func (f *fakeShipmentStore) Create(ctx context.Context, s models.Shipment) (int64, error) {
	f.nextID++
	s.ID = f.nextID
	s.Status = lifecycle.StatusPending
	s.PaymentStatus = "unpaid"
	s.StatusHistory = []models.StatusHistoryEntry{{
		Status:    lifecycle.StatusPending,
		Timestamp: time.Now(),
		Note:      "Shipment created",
	}}
	f.shipments[s.ID] = &s
	return s.ID, nil
}

func (f *fakeShipmentStore) GetByID(ctx context.Context, id int64) (models.Shipment, error) {
	s, ok := f.shipments[id]
	if !ok {
		return models.Shipment{}, models.ErrShipmentNotFound
	}
	return *s, nil
}

func (f *fakeShipmentStore) GetByTrackingID(ctx context.Context, trackingID string) (models.Shipment, error) {
	for _, s := range f.shipments {
		if s.TrackingID == trackingID {
			return *s, nil
		}
	}
	return models.Shipment{}, models.ErrShipmentNotFound
}

func (f *fakeShipmentStore) List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, s := range f.shipments {
		if filter.ShipperID != nil && s.ShipperID != *filter.ShipperID {
			continue
		}
		if filter.DriverID != nil && (s.DriverID == nil || *s.DriverID != *filter.DriverID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeShipmentStore) UpdateStatus(ctx context.Context, shipmentID int64, nextStatus string, location *models.Coordinates, note string) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrShipmentNotFound
	}
	if !lifecycle.CanTransition(s.Status, nextStatus) {
		return &models.InvalidTransitionError{From: s.Status, To: nextStatus}
	}
	s.Status = nextStatus
	if nextStatus == lifecycle.StatusDelivered {
		now := time.Now()
		s.ActualDeliveryDate = &now
	}
	s.StatusHistory = append(s.StatusHistory, models.StatusHistoryEntry{
		Status:    nextStatus,
		Timestamp: time.Now(),
		Location:  location,
		Note:      note,
	})
	return nil
}

func (f *fakeShipmentStore) AssignDriver(ctx context.Context, shipmentID, driverID int64, note string) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrShipmentNotFound
	}
	if !lifecycle.CanTransition(s.Status, lifecycle.StatusAssigned) {
		return &models.InvalidTransitionError{From: s.Status, To: lifecycle.StatusAssigned}
	}
	s.DriverID = &driverID
	s.Status = lifecycle.StatusAssigned
	s.StatusHistory = append(s.StatusHistory, models.StatusHistoryEntry{
		Status:    lifecycle.StatusAssigned,
		Timestamp: time.Now(),
		Note:      note,
	})
	return nil
}

func (f *fakeShipmentStore) UpdateDetails(ctx context.Context, shipmentID int64, upd models.ShipmentUpdate) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrShipmentNotFound
	}
	if s.Status != lifecycle.StatusPending {
		return models.ErrNotPending
	}
	if upd.Pickup != nil {
		s.Pickup = *upd.Pickup
	}
	if upd.Delivery != nil {
		s.Delivery = *upd.Delivery
	}
	if upd.Cargo != nil {
		s.Cargo = *upd.Cargo
	}
	if upd.Notes != nil {
		s.Notes = *upd.Notes
	}
	return nil
}

func (f *fakeShipmentStore) SetPaymentStatus(ctx context.Context, shipmentID int64, paymentStatus string) error {
	s, ok := f.shipments[shipmentID]
	if !ok {
		return models.ErrShipmentNotFound
	}
	s.PaymentStatus = paymentStatus
	return nil
}

type fakeDriverStore struct {
	drivers map[int64]*models.Driver
}

func newFakeDriverStore(drivers ...models.Driver) *fakeDriverStore {
	f := &fakeDriverStore{drivers: map[int64]*models.Driver{}}
	for i := range drivers {
		d := drivers[i]
		f.drivers[d.ID] = &d
	}
	return f
}

func (f *fakeDriverStore) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return models.Driver{}, models.ErrDriverNotFound
	}
	return *d, nil
}

func (f *fakeDriverStore) GetByUserID(ctx context.Context, userID int64) (models.Driver, error) {
	for _, d := range f.drivers {
		if d.UserID == userID {
			return *d, nil
		}
	}
	return models.Driver{}, models.ErrDriverNotFound
}

func (f *fakeDriverStore) RecordAssignment(ctx context.Context, driverID int64) error {
	if d, ok := f.drivers[driverID]; ok {
		d.Statistics.TotalDeliveries++
	}
	return nil
}

func (f *fakeDriverStore) RecordDelivery(ctx context.Context, driverID int64) error {
	if d, ok := f.drivers[driverID]; ok {
		d.Statistics.CompletedDeliveries++
	}
	return nil
}

func (f *fakeDriverStore) RecordCancellation(ctx context.Context, driverID int64) error {
	if d, ok := f.drivers[driverID]; ok {
		d.Statistics.CancelledDeliveries++
	}
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, title, message, kind string, shipmentID int64) {
	f.sent = append(f.sent, fmt.Sprintf("%d:%s", userID, title))
}

type fixedDistance float64

func (d fixedDistance) DistanceKM(ctx context.Context, pickup, delivery string) float64 {
	return float64(d)
}

var (
	admin    = models.Principal{UserID: 1, Role: models.RoleAdmin}
	shipper  = models.Principal{UserID: 10, Role: models.RoleShipper}
	driverP  = models.Principal{UserID: 20, Role: models.RoleDriver}
	driverP2 = models.Principal{UserID: 21, Role: models.RoleDriver}
)

func newShipmentService() (*ShipmentService, *fakeShipmentStore, *fakeDriverStore, *fakeNotifier) {
	shipments := newFakeShipmentStore()
	drivers := newFakeDriverStore(
		models.Driver{ID: 5, UserID: driverP.UserID, Name: "Ravi Kumar", Available: true},
		models.Driver{ID: 6, UserID: driverP2.UserID, Name: "Suresh Patil", Available: false},
	)
	notifier := &fakeNotifier{}
	svc := &ShipmentService{
		Shipments: shipments,
		Drivers:   drivers,
		Notifier:  notifier,
		Distance:  fixedDistance(100),
	}
	return svc, shipments, drivers, notifier
}

func createTestShipment(t *testing.T, svc *ShipmentService) models.Shipment {
	t.Helper()
	s, err := svc.CreateShipment(context.Background(), shipper, CreateShipmentInput{
		Pickup:   models.ShipmentLocation{Address: "MG Road, Bengaluru"},
		Delivery: models.ShipmentLocation{Address: "Andheri East, Mumbai"},
		Cargo:    models.Cargo{Weight: 250, VehicleType: models.VehicleStandard},
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	return s
}

func TestCreateShipment(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	if s.Status != lifecycle.StatusPending {
		t.Errorf("status = %s, want pending", s.Status)
	}
	if !strings.HasPrefix(s.TrackingID, "SH") || len(s.TrackingID) != 12 {
		t.Errorf("tracking id %q does not match SH + 10 digits", s.TrackingID)
	}
	if s.Pricing.TotalPrice != 1050 {
		t.Errorf("total = %d, want 1050 for 100km standard truck", s.Pricing.TotalPrice)
	}
	if len(s.StatusHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(s.StatusHistory))
	}
	if s.StatusHistory[0].Status != lifecycle.StatusPending {
		t.Errorf("history[0].Status = %s, want pending", s.StatusHistory[0].Status)
	}
}

func TestCreateShipmentRejectsNonShipper(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	for _, actor := range []models.Principal{admin, driverP} {
		_, err := svc.CreateShipment(context.Background(), actor, CreateShipmentInput{
			Pickup:   models.ShipmentLocation{Address: "A"},
			Delivery: models.ShipmentLocation{Address: "B"},
			Cargo:    models.Cargo{Weight: 10, VehicleType: models.VehicleMiniTruck},
		})
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("role %s: err = %v, want ErrUnauthorized", actor.Role, err)
		}
	}
}

func TestAssignDriver(t *testing.T) {
	svc, _, drivers, notifier := newShipmentService()
	s := createTestShipment(t, svc)

	got, err := svc.AssignDriver(context.Background(), admin, s.ID, 5)
	if err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if got.Status != lifecycle.StatusAssigned {
		t.Errorf("status = %s, want assigned", got.Status)
	}
	if got.DriverID == nil || *got.DriverID != 5 {
		t.Errorf("driver id = %v, want 5", got.DriverID)
	}
	if len(got.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(got.StatusHistory))
	}
	if got.StatusHistory[1].Note != "Assigned to driver: Ravi Kumar" {
		t.Errorf("history note = %q", got.StatusHistory[1].Note)
	}
	d, _ := drivers.GetByID(context.Background(), 5)
	if d.Statistics.TotalDeliveries != 1 {
		t.Errorf("total deliveries = %d, want 1", d.Statistics.TotalDeliveries)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("notifications = %d, want 2 (driver and shipper)", len(notifier.sent))
	}
}

func TestAssignDriverAuthz(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	for _, actor := range []models.Principal{shipper, driverP} {
		if _, err := svc.AssignDriver(context.Background(), actor, s.ID, 5); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("role %s: err = %v, want ErrUnauthorized", actor.Role, err)
		}
	}
}

func TestAssignUnavailableDriver(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	if _, err := svc.AssignDriver(context.Background(), admin, s.ID, 6); !errors.Is(err, models.ErrDriverUnavailable) {
		t.Errorf("err = %v, want ErrDriverUnavailable", err)
	}
}

func TestAssignedDriverAdvances(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)
	if _, err := svc.AssignDriver(context.Background(), admin, s.ID, 5); err != nil {
		t.Fatal(err)
	}

	got, err := svc.RequestTransition(context.Background(), driverP, s.ID, lifecycle.StatusPickedUp,
		&models.Coordinates{Lat: 12.97, Lng: 77.59}, "Picked up from warehouse")
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if got.Status != lifecycle.StatusPickedUp {
		t.Errorf("status = %s, want picked-up", got.Status)
	}
	if len(got.StatusHistory) != 3 {
		t.Fatalf("history length = %d, want 3", len(got.StatusHistory))
	}
	last := got.StatusHistory[2]
	if last.Location == nil || last.Location.Lat != 12.97 {
		t.Errorf("history location = %v", last.Location)
	}
}

func TestOtherDriverCannotAdvance(t *testing.T) {
	svc, _, drivers, _ := newShipmentService()
	drivers.drivers[6].Available = true
	s := createTestShipment(t, svc)
	if _, err := svc.AssignDriver(context.Background(), admin, s.ID, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RequestTransition(context.Background(), driverP2, s.ID, lifecycle.StatusPickedUp, nil, ""); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}

	got, err := svc.Get(context.Background(), admin, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != lifecycle.StatusAssigned {
		t.Errorf("status = %s after rejected advance, want assigned", got.Status)
	}
	if len(got.StatusHistory) != 2 {
		t.Errorf("history length = %d after rejected advance, want 2", len(got.StatusHistory))
	}
}

func TestShipperCannotAdvance(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)
	if _, err := svc.AssignDriver(context.Background(), admin, s.ID, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RequestTransition(context.Background(), shipper, s.ID, lifecycle.StatusPickedUp, nil, ""); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestTransitionRejectsSkips(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	var invalid *models.InvalidTransitionError
	if _, err := svc.RequestTransition(context.Background(), admin, s.ID, lifecycle.StatusDelivered, nil, ""); !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != lifecycle.StatusPending || invalid.To != lifecycle.StatusDelivered {
		t.Errorf("error = %v", invalid)
	}
}

func TestTransitionRejectsAssignedWithoutDriver(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	var invalid *models.InvalidTransitionError
	if _, err := svc.RequestTransition(context.Background(), admin, s.ID, lifecycle.StatusAssigned, nil, ""); !errors.As(err, &invalid) {
		t.Errorf("err = %v, want InvalidTransitionError", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	if _, err := svc.RequestTransition(context.Background(), admin, s.ID, "shipped", nil, ""); !errors.Is(err, models.ErrUnknownStatus) {
		t.Errorf("err = %v, want ErrUnknownStatus", err)
	}
}

func TestCancelAfterDeliveredRejected(t *testing.T) {
	svc, _, drivers, _ := newShipmentService()
	s := createTestShipment(t, svc)
	ctx := context.Background()
	if _, err := svc.AssignDriver(ctx, admin, s.ID, 5); err != nil {
		t.Fatal(err)
	}
	for _, next := range []string{lifecycle.StatusPickedUp, lifecycle.StatusInTransit, lifecycle.StatusDelivered} {
		if _, err := svc.RequestTransition(ctx, admin, s.ID, next, nil, ""); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	var invalid *models.InvalidTransitionError
	if _, err := svc.Cancel(ctx, shipper, s.ID, "changed my mind"); !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}

	got, err := svc.Get(ctx, admin, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != lifecycle.StatusDelivered {
		t.Errorf("status = %s after rejected cancel, want delivered", got.Status)
	}
	if len(got.StatusHistory) != 5 {
		t.Errorf("history length = %d after rejected cancel, want 5", len(got.StatusHistory))
	}

	d, _ := drivers.GetByID(ctx, 5)
	if d.Statistics.CompletedDeliveries != 1 {
		t.Errorf("completed deliveries = %d, want 1", d.Statistics.CompletedDeliveries)
	}
}

func TestShipperCancelsOwnPendingShipment(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)

	got, err := svc.Cancel(context.Background(), shipper, s.ID, "no longer needed")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != lifecycle.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	other := models.Principal{UserID: 99, Role: models.RoleShipper}
	s2 := createTestShipment(t, svc)
	if _, err := svc.Cancel(context.Background(), other, s2.ID, ""); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("other shipper cancel: err = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateDetailsOnlyWhilePending(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)
	ctx := context.Background()

	notes := "fragile"
	got, err := svc.UpdateDetails(ctx, shipper, s.ID, models.ShipmentUpdate{Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	if got.Notes != "fragile" {
		t.Errorf("notes = %q", got.Notes)
	}

	if _, err := svc.AssignDriver(ctx, admin, s.ID, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateDetails(ctx, shipper, s.ID, models.ShipmentUpdate{Notes: &notes}); !errors.Is(err, models.ErrNotPending) {
		t.Errorf("err = %v, want ErrNotPending", err)
	}
}

func TestListRoleFiltering(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	ctx := context.Background()
	s1 := createTestShipment(t, svc)
	createTestShipment(t, svc)
	if _, err := svc.AssignDriver(ctx, admin, s1.ID, 5); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, admin, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d shipments, want 2", len(all))
	}

	own, err := svc.List(ctx, shipper, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(own) != 2 {
		t.Errorf("shipper sees %d shipments, want 2", len(own))
	}

	mine, err := svc.List(ctx, driverP, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != s1.ID {
		t.Errorf("driver sees %d shipments, want only the assigned one", len(mine))
	}
}

func TestGetVisibility(t *testing.T) {
	svc, _, _, _ := newShipmentService()
	s := createTestShipment(t, svc)
	ctx := context.Background()

	if _, err := svc.Get(ctx, shipper, s.ID); err != nil {
		t.Errorf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, driverP, s.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("unassigned driver Get: err = %v, want ErrUnauthorized", err)
	}
}
