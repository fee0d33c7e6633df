package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aayush-1o/truck/internal/models"
)

// DriverRepository provides the driver directory: profile lookup,
// availability and delivery counters.
type DriverRepository struct {
	DB *sql.DB
}

const driverColumns = `d.id, d.user_id, u.name, u.phone, d.vehicle_type, d.vehicle_number, d.license_number, d.available,
	d.total_deliveries, d.completed_deliveries, d.cancelled_deliveries, d.created_at, d.updated_at`

// GetByID returns a driver profile with its linked user's contact fields.
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers d JOIN users u ON u.id = d.user_id WHERE d.id = ?`, id)
	return scanDriver(row)
}

// GetByUserID returns the driver profile linked to a user account.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID int64) (models.Driver, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers d JOIN users u ON u.id = d.user_id WHERE d.user_id = ?`, userID)
	return scanDriver(row)
}

// ListAvailable returns drivers currently accepting assignments, optionally
// narrowed to a vehicle type.
func (r *DriverRepository) ListAvailable(ctx context.Context, vehicleType string) ([]models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers d JOIN users u ON u.id = d.user_id WHERE d.available = 1`
	args := []interface{}{}
	if vehicleType != "" {
		query += ` AND d.vehicle_type = ?`
		args = append(args, vehicleType)
	}
	query += ` ORDER BY d.completed_deliveries DESC LIMIT 50`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		d, scanErr := scanDriver(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// SetAvailability toggles whether the driver accepts new assignments.
func (r *DriverRepository) SetAvailability(ctx context.Context, driverID int64, available bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE drivers SET available = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, available, driverID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrDriverNotFound
	}
	return nil
}

// RecordAssignment bumps the total-deliveries counter when a shipment is
// assigned to the driver.
func (r *DriverRepository) RecordAssignment(ctx context.Context, driverID int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE drivers SET total_deliveries = total_deliveries + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, driverID)
	return err
}

// RecordDelivery bumps the completed counter on a delivered shipment.
func (r *DriverRepository) RecordDelivery(ctx context.Context, driverID int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE drivers SET completed_deliveries = completed_deliveries + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, driverID)
	return err
}

// RecordCancellation bumps the cancelled counter.
func (r *DriverRepository) RecordCancellation(ctx context.Context, driverID int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE drivers SET cancelled_deliveries = cancelled_deliveries + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, driverID)
	return err
}

func scanDriver(row rowScanner) (models.Driver, error) {
	var (
		d     models.Driver
		phone sql.NullString
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &phone, &d.VehicleType, &d.VehicleNumber, &d.LicenseNumber, &d.Available,
		&d.Statistics.TotalDeliveries, &d.Statistics.CompletedDeliveries, &d.Statistics.CancelledDeliveries, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Driver{}, models.ErrDriverNotFound
	}
	if err != nil {
		return models.Driver{}, err
	}
	d.Phone = phone.String
	return d, nil
}
