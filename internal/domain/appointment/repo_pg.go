package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

var ErrNotFound = errors.New("appointment not found")

const appointmentColumns = `code, patient_name, service_code, service_name, therapist_id,
	email, phone, date, time, notes, payment_type, status,
	escort_name, escort_relation, escort_phone, created_at, updated_at`

// PGAppointmentRepo is the PostgreSQL AppointmentRepo.
type PGAppointmentRepo struct {
	pool *pgxpool.Pool
}

func NewPGAppointmentRepo(pool *pgxpool.Pool) *PGAppointmentRepo {
	return &PGAppointmentRepo{pool: pool}
}

func (r *PGAppointmentRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGAppointmentRepo) Create(ctx context.Context, a *Appointment) error {
	const q = `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.conn(ctx).Exec(ctx, q,
		a.Code, a.PatientName, a.ServiceCode, a.ServiceName, a.TherapistID,
		a.Email, a.Phone, a.Date, a.Time, a.Notes, a.PaymentType, a.Status,
		a.EscortName, a.EscortRelation, a.EscortPhone, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("appointment %s already exists", a.Code)
		}
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.Code, &a.PatientName, &a.ServiceCode, &a.ServiceName, &a.TherapistID,
		&a.Email, &a.Phone, &a.Date, &a.Time, &a.Notes, &a.PaymentType, &a.Status,
		&a.EscortName, &a.EscortRelation, &a.EscortPhone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning appointment: %w", err)
	}
	return &a, nil
}

func (r *PGAppointmentRepo) GetByCode(ctx context.Context, code string) (*Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments WHERE code = $1`
	return scanAppointment(r.conn(ctx).QueryRow(ctx, q, code))
}

func (r *PGAppointmentRepo) UpdateStatus(ctx context.Context, code, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE code = $1`, code, status)
	if err != nil {
		return fmt.Errorf("updating appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGAppointmentRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGAppointmentRepo) list(ctx context.Context, where string, countArgs, args []interface{}) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting appointments: %w", err)
	}

	q := `SELECT ` + appointmentColumns + ` FROM appointments ` + where +
		fmt.Sprintf(` ORDER BY date DESC, time DESC LIMIT $%d OFFSET $%d`, len(countArgs)+1, len(countArgs)+2)
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PGAppointmentRepo) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "", nil, []interface{}{limit, offset})
}

func (r *PGAppointmentRepo) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE therapist_id = $1`,
		[]interface{}{therapistID}, []interface{}{therapistID, limit, offset})
}

func (r *PGAppointmentRepo) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE email = $1`,
		[]interface{}{email}, []interface{}{email, limit, offset})
}

// PGEscortRepo is the PostgreSQL EscortRepo.
type PGEscortRepo struct {
	pool *pgxpool.Pool
}

func NewPGEscortRepo(pool *pgxpool.Pool) *PGEscortRepo {
	return &PGEscortRepo{pool: pool}
}

func (r *PGEscortRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGEscortRepo) Create(ctx context.Context, e *Escort) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO escorts (id, appointment_code, name, relation, phone) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.AppointmentCode, e.Name, e.Relation, e.Phone)
	if err != nil {
		return fmt.Errorf("inserting escort: %w", err)
	}
	return nil
}

func (r *PGEscortRepo) GetByAppointment(ctx context.Context, code string) (*Escort, error) {
	var e Escort
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, appointment_code, name, relation, phone FROM escorts WHERE appointment_code = $1`,
		code).Scan(&e.ID, &e.AppointmentCode, &e.Name, &e.Relation, &e.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching escort: %w", err)
	}
	return &e, nil
}

func (r *PGEscortRepo) DeleteByAppointment(ctx context.Context, code string) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM escorts WHERE appointment_code = $1`, code); err != nil {
		return fmt.Errorf("deleting escort: %w", err)
	}
	return nil
}

// PGPatientRepo is the PostgreSQL PatientRepo.
type PGPatientRepo struct {
	pool *pgxpool.Pool
}

func NewPGPatientRepo(pool *pgxpool.Pool) *PGPatientRepo {
	return &PGPatientRepo{pool: pool}
}

func (r *PGPatientRepo) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PGPatientRepo) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO patients (appointment_code, user_id, therapist_id, plan_type, plan_price, escort_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.AppointmentCode, p.UserID, p.TherapistID, p.PlanType, p.PlanPrice, p.EscortID, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("patient record for %s already exists", p.AppointmentCode)
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PGPatientRepo) GetByAppointment(ctx context.Context, code string) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT appointment_code, user_id, therapist_id, plan_type, plan_price, escort_id, created_at
		 FROM patients WHERE appointment_code = $1`, code).
		Scan(&p.AppointmentCode, &p.UserID, &p.TherapistID, &p.PlanType, &p.PlanPrice, &p.EscortID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return &p, nil
}

func (r *PGPatientRepo) DeleteByAppointment(ctx context.Context, code string) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE appointment_code = $1`, code); err != nil {
		return fmt.Errorf("deleting patient: %w", err)
	}
	return nil
}

func (r *PGPatientRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting patients by user: %w", err)
	}
	return n, nil
}
