package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.AppointmentSlot) error {
	query := `
		INSERT INTO appointment_slots (
			id, doctor_id, slot_date, start_time, end_time,
			capacity, booked_count, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.Capacity,
		slot.BookedCount,
		slot.Status,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create slot", err)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, start_time, end_time,
		       capacity, booked_count, status, created_at, updated_at
		FROM appointment_slots
		WHERE id = $1
	`
	var slot model.AppointmentSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, wrapErr("get slot", err)
	}
	return &slot, nil
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.AppointmentSlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, start_time, end_time,
		       capacity, booked_count, status, created_at, updated_at
		FROM appointment_slots
		WHERE 1 = 1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.FromDate.IsZero() {
			query += fmt.Sprintf(" AND slot_date >= $%d", argCount)
			args = append(args, filters.FromDate)
			argCount++
		}
	}

	query += " ORDER BY slot_date ASC, start_time ASC"

	var slots []*model.AppointmentSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, wrapErr("list slots", err)
	}
	return slots, nil
}

// ReserveSeat claims one seat with a conditional increment so two concurrent
// bookings against the last seat resolve to exactly one success. The status
// flips to full in the same statement when the increment fills the slot.
func (r *slotRepository) ReserveSeat(ctx context.Context, slotID, patientID uuid.UUID) (*model.Booking, error) {
	var booking *model.Booking

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE appointment_slots
			SET booked_count = booked_count + 1,
			    status = CASE WHEN booked_count + 1 >= capacity THEN 'full' ELSE status END,
			    updated_at = $2
			WHERE id = $1
			  AND status = 'available'
			  AND booked_count < capacity
		`, slotID, time.Now())
		if err != nil {
			return wrapErr("reserve seat", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return wrapErr("reserve seat", err)
		}
		if rows == 0 {
			return repository.ErrNoSeat
		}

		b := &model.Booking{
			SlotID:    slotID,
			PatientID: patientID,
			Active:    true,
		}
		b.ID = uuid.New()
		b.CreatedAt = time.Now()
		b.UpdatedAt = b.CreatedAt

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (id, slot_id, patient_id, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, b.ID, b.SlotID, b.PatientID, b.Active, b.CreatedAt, b.UpdatedAt); err != nil {
			return wrapErr("insert booking", err)
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel keeps bookings as inactive historical rows rather than deleting them.
func (r *slotRepository) Cancel(ctx context.Context, slotID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE appointment_slots
			SET status = 'cancelled', updated_at = $2
			WHERE id = $1 AND status != 'cancelled'
		`, slotID, time.Now())
		if err != nil {
			return wrapErr("cancel slot", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return wrapErr("cancel slot", err)
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM appointment_slots WHERE id = $1)`, slotID); err != nil {
				return wrapErr("cancel slot", err)
			}
			if !exists {
				return repository.ErrNotFound
			}
			return repository.ErrDuplicate
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET active = false, updated_at = $2
			WHERE slot_id = $1 AND active
		`, slotID, time.Now()); err != nil {
			return wrapErr("deactivate bookings", err)
		}
		return nil
	})
}

func (r *slotRepository) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, slot_id, patient_id, active, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, wrapErr("get booking", err)
	}
	return &booking, nil
}

func (r *slotRepository) ListBookings(ctx context.Context, slotID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT id, slot_id, patient_id, active, created_at, updated_at
		FROM bookings
		WHERE slot_id = $1
		ORDER BY created_at ASC
	`
	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, slotID); err != nil {
		return nil, wrapErr("list bookings", err)
	}
	return bookings, nil
}

func (r *slotRepository) CountActiveBookings(ctx context.Context, slotID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM bookings WHERE slot_id = $1 AND active`, slotID); err != nil {
		return 0, wrapErr("count bookings", err)
	}
	return count, nil
}
