package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aayush-1o/truck/internal/lifecycle"
	"github.com/aayush-1o/truck/internal/models"
)

// ShipmentRepository provides persistence for shipments and their
// append-only status history. History entries are only ever inserted; no
// method updates or deletes them.
type ShipmentRepository struct {
	DB *sql.DB
}

const shipmentColumns = `id, tracking_id, shipper_id, driver_id,
	pickup_address, pickup_city, pickup_pincode, pickup_lat, pickup_lng,
	delivery_address, delivery_city, delivery_pincode, delivery_lat, delivery_lng,
	cargo_weight, vehicle_type, cargo_description, cargo_value,
	status, payment_status, base_price, insurance, taxes, total_price, distance_km,
	pickup_date, estimated_delivery_date, actual_delivery_date, notes, created_at, updated_at`

// Create inserts a new shipment together with its initial history entry in
// one transaction.
func (r *ShipmentRepository) Create(ctx context.Context, s models.Shipment) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, execErr := tx.ExecContext(ctx, `INSERT INTO shipments
		(tracking_id, shipper_id,
		 pickup_address, pickup_city, pickup_pincode, pickup_lat, pickup_lng,
		 delivery_address, delivery_city, delivery_pincode, delivery_lat, delivery_lng,
		 cargo_weight, vehicle_type, cargo_description, cargo_value,
		 status, payment_status, base_price, insurance, taxes, total_price, distance_km,
		 pickup_date, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.TrackingID, s.ShipperID,
		s.Pickup.Address, nullIfEmpty(s.Pickup.City), nullIfEmpty(s.Pickup.Pincode), coordLat(s.Pickup.Coordinates), coordLng(s.Pickup.Coordinates),
		s.Delivery.Address, nullIfEmpty(s.Delivery.City), nullIfEmpty(s.Delivery.Pincode), coordLat(s.Delivery.Coordinates), coordLng(s.Delivery.Coordinates),
		s.Cargo.Weight, s.Cargo.VehicleType, nullIfEmpty(s.Cargo.Description), s.Cargo.Value,
		lifecycle.StatusPending, "unpaid", s.Pricing.BasePrice, s.Pricing.Insurance, s.Pricing.Taxes, s.Pricing.TotalPrice, s.Pricing.DistanceKM,
		s.PickupDate, nullIfEmpty(s.Notes))
	if execErr != nil {
		err = execErr
		return 0, err
	}
	shipmentID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err = insertStatusHistory(ctx, tx, shipmentID, models.StatusHistoryEntry{
		Status:    lifecycle.StatusPending,
		Timestamp: time.Now(),
		Note:      "Shipment created",
	}); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return shipmentID, nil
}

// GetByID returns a shipment with its full status history.
func (r *ShipmentRepository) GetByID(ctx context.Context, id int64) (models.Shipment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = ?`, id)
	return r.scanWithHistory(ctx, row)
}

// GetByTrackingID returns a shipment by its public tracking identifier.
func (r *ShipmentRepository) GetByTrackingID(ctx context.Context, trackingID string) (models.Shipment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE tracking_id = ?`,
		strings.ToUpper(strings.TrimSpace(trackingID)))
	return r.scanWithHistory(ctx, row)
}

// List returns shipments matching the filter, newest first.
func (r *ShipmentRepository) List(ctx context.Context, f models.ShipmentFilter) ([]models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE 1=1`
	args := []interface{}{}
	if f.ShipperID != nil {
		query += ` AND shipper_id = ?`
		args = append(args, *f.ShipperID)
	}
	if f.DriverID != nil {
		query += ` AND driver_id = ?`
		args = append(args, *f.DriverID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shipments []models.Shipment
	for rows.Next() {
		s, scanErr := scanShipment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

// UpdateStatus applies one lifecycle transition atomically: the current
// status is read under a row lock, validated against the transition graph
// and replaced together with a new history entry in the same transaction.
// Concurrent requests against the same shipment serialize on the lock; the
// loser sees the winner's status and fails validation.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, shipmentID int64, nextStatus string, location *models.Coordinates, note string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err = tx.QueryRowContext(ctx, `SELECT status FROM shipments WHERE id = ? FOR UPDATE`, shipmentID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrShipmentNotFound
		}
		return err
	}

	if !lifecycle.CanTransition(current, nextStatus) {
		err = &models.InvalidTransitionError{From: current, To: nextStatus}
		return err
	}

	if nextStatus == lifecycle.StatusDelivered {
		_, err = tx.ExecContext(ctx, `UPDATE shipments SET status = ?, actual_delivery_date = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, nextStatus, shipmentID)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE shipments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, nextStatus, shipmentID)
	}
	if err != nil {
		return err
	}

	if err = insertStatusHistory(ctx, tx, shipmentID, models.StatusHistoryEntry{
		Status:    nextStatus,
		Timestamp: time.Now(),
		Location:  location,
		Note:      note,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// AssignDriver links a driver to a pending shipment and moves it to
// assigned, under the same row lock as UpdateStatus. Two admins racing to
// assign the same shipment cannot both win.
func (r *ShipmentRepository) AssignDriver(ctx context.Context, shipmentID, driverID int64, note string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err = tx.QueryRowContext(ctx, `SELECT status FROM shipments WHERE id = ? FOR UPDATE`, shipmentID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrShipmentNotFound
		}
		return err
	}

	if !lifecycle.CanTransition(current, lifecycle.StatusAssigned) {
		err = &models.InvalidTransitionError{From: current, To: lifecycle.StatusAssigned}
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE shipments SET driver_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		driverID, lifecycle.StatusAssigned, shipmentID); err != nil {
		return err
	}

	if err = insertStatusHistory(ctx, tx, shipmentID, models.StatusHistoryEntry{
		Status:    lifecycle.StatusAssigned,
		Timestamp: time.Now(),
		Note:      note,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateDetails edits route/cargo fields. Allowed only while the shipment
// is still pending; the check runs under the row lock.
func (r *ShipmentRepository) UpdateDetails(ctx context.Context, shipmentID int64, upd models.ShipmentUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err = tx.QueryRowContext(ctx, `SELECT status FROM shipments WHERE id = ? FOR UPDATE`, shipmentID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrShipmentNotFound
		}
		return err
	}
	if current != lifecycle.StatusPending {
		err = models.ErrNotPending
		return err
	}

	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}
	if upd.Pickup != nil {
		set = append(set, "pickup_address = ?", "pickup_city = ?", "pickup_pincode = ?", "pickup_lat = ?", "pickup_lng = ?")
		args = append(args, upd.Pickup.Address, nullIfEmpty(upd.Pickup.City), nullIfEmpty(upd.Pickup.Pincode), coordLat(upd.Pickup.Coordinates), coordLng(upd.Pickup.Coordinates))
	}
	if upd.Delivery != nil {
		set = append(set, "delivery_address = ?", "delivery_city = ?", "delivery_pincode = ?", "delivery_lat = ?", "delivery_lng = ?")
		args = append(args, upd.Delivery.Address, nullIfEmpty(upd.Delivery.City), nullIfEmpty(upd.Delivery.Pincode), coordLat(upd.Delivery.Coordinates), coordLng(upd.Delivery.Coordinates))
	}
	if upd.Cargo != nil {
		set = append(set, "cargo_weight = ?", "vehicle_type = ?", "cargo_description = ?", "cargo_value = ?")
		args = append(args, upd.Cargo.Weight, upd.Cargo.VehicleType, nullIfEmpty(upd.Cargo.Description), upd.Cargo.Value)
	}
	if upd.PickupDate != nil {
		set = append(set, "pickup_date = ?")
		args = append(args, *upd.PickupDate)
	}
	if upd.Notes != nil {
		set = append(set, "notes = ?")
		args = append(args, nullIfEmpty(*upd.Notes))
	}
	args = append(args, shipmentID)

	if _, err = tx.ExecContext(ctx, `UPDATE shipments SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPaymentStatus updates the denormalized payment flag. Payment state is
// independent of shipment status and bypasses the lifecycle graph.
func (r *ShipmentRepository) SetPaymentStatus(ctx context.Context, shipmentID int64, paymentStatus string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE shipments SET payment_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, paymentStatus, shipmentID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrShipmentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShipment(row rowScanner) (models.Shipment, error) {
	var (
		s                                 models.Shipment
		driverID                          sql.NullInt64
		pickupCity, pickupPincode         sql.NullString
		pickupLat, pickupLng              sql.NullFloat64
		deliveryCity, deliveryPincode     sql.NullString
		deliveryLat, deliveryLng          sql.NullFloat64
		description, notes                sql.NullString
		estimatedDelivery, actualDelivery sql.NullTime
	)
	err := row.Scan(&s.ID, &s.TrackingID, &s.ShipperID, &driverID,
		&s.Pickup.Address, &pickupCity, &pickupPincode, &pickupLat, &pickupLng,
		&s.Delivery.Address, &deliveryCity, &deliveryPincode, &deliveryLat, &deliveryLng,
		&s.Cargo.Weight, &s.Cargo.VehicleType, &description, &s.Cargo.Value,
		&s.Status, &s.PaymentStatus, &s.Pricing.BasePrice, &s.Pricing.Insurance, &s.Pricing.Taxes, &s.Pricing.TotalPrice, &s.Pricing.DistanceKM,
		&s.PickupDate, &estimatedDelivery, &actualDelivery, &notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, models.ErrShipmentNotFound
	}
	if err != nil {
		return models.Shipment{}, err
	}

	if driverID.Valid {
		s.DriverID = &driverID.Int64
	}
	s.Pickup.City = pickupCity.String
	s.Pickup.Pincode = pickupPincode.String
	if pickupLat.Valid && pickupLng.Valid {
		s.Pickup.Coordinates = &models.Coordinates{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	s.Delivery.City = deliveryCity.String
	s.Delivery.Pincode = deliveryPincode.String
	if deliveryLat.Valid && deliveryLng.Valid {
		s.Delivery.Coordinates = &models.Coordinates{Lat: deliveryLat.Float64, Lng: deliveryLng.Float64}
	}
	s.Cargo.Description = description.String
	s.Notes = notes.String
	if estimatedDelivery.Valid {
		s.EstimatedDeliveryDate = &estimatedDelivery.Time
	}
	if actualDelivery.Valid {
		s.ActualDeliveryDate = &actualDelivery.Time
	}
	return s, nil
}

func (r *ShipmentRepository) scanWithHistory(ctx context.Context, row rowScanner) (models.Shipment, error) {
	s, err := scanShipment(row)
	if err != nil {
		return models.Shipment{}, err
	}
	history, err := r.fetchHistory(ctx, s.ID)
	if err != nil {
		return models.Shipment{}, err
	}
	s.StatusHistory = history
	return s, nil
}

func (r *ShipmentRepository) fetchHistory(ctx context.Context, shipmentID int64) ([]models.StatusHistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, created_at, lat, lng, note FROM shipment_status_history WHERE shipment_id = ? ORDER BY id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusHistoryEntry
	for rows.Next() {
		var (
			e        models.StatusHistoryEntry
			lat, lng sql.NullFloat64
			note     sql.NullString
		)
		if err := rows.Scan(&e.Status, &e.Timestamp, &lat, &lng, &note); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			e.Location = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		e.Note = note.String
		history = append(history, e)
	}
	return history, rows.Err()
}

func insertStatusHistory(ctx context.Context, tx *sql.Tx, shipmentID int64, entry models.StatusHistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO shipment_status_history (shipment_id, status, created_at, lat, lng, note) VALUES (?,?,?,?,?,?)`,
		shipmentID, entry.Status, entry.Timestamp, coordLat(entry.Location), coordLng(entry.Location), nullIfEmpty(entry.Note))
	return err
}

func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func coordLat(c *models.Coordinates) interface{} {
	if c == nil {
		return nil
	}
	return c.Lat
}

func coordLng(c *models.Coordinates) interface{} {
	if c == nil {
		return nil
	}
	return c.Lng
}
