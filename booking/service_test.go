package booking

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"github.com/tanvirahmed-dev/therapylink/wallet"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

type dispatched struct {
	ConsumerID uint
	Title      string
}

type stubNotifier struct {
	calls []dispatched
}

func (n *stubNotifier) Dispatch(consumerID uint, title, message, sourceType string, sourceID uint) {
	n.calls = append(n.calls, dispatched{ConsumerID: consumerID, Title: title})
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *stubNotifier) {
	t.Helper()
	gdb, mock := newTestDB(t)
	notifier := &stubNotifier{}
	return NewService(gdb, wallet.NewLedger(gdb), notifier), mock, notifier
}

// futureDate is a week from now, so its weekday is known up front.
func futureDate() (time.Time, int) {
	date := time.Now().AddDate(0, 0, 7)
	return date, int(date.Weekday())
}

func userRows(id uint, name, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "role"}).
		AddRow(id, name, fmt.Sprintf("%s@example.com", name), role)
}

func availabilityRow(therapistID uint, dayIndex int, closed bool, slots string, limit int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "therapist_id", "day_index", "is_closed", "slots", "appointment_limit"}).
		AddRow(1, therapistID, dayIndex, closed, slots, limit)
}

// expectAdmissionReads queues the read-side of a booking up to and including
// the availability template.
func expectAdmissionReads(mock sqlmock.Sqlmock, dayIndex int, closed bool, slots string, limit int) {
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(1, "alice", models.RolePatient))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(2, "bob", models.RoleTherapist))
	mock.ExpectQuery(`SELECT \* FROM "therapist_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_fee", "consume_count"}).
			AddRow(1, 2, 1000, 0))
	mock.ExpectQuery(`SELECT \* FROM "availabilities"`).
		WillReturnRows(availabilityRow(2, dayIndex, closed, slots, limit))
}

func TestCreateBooksFromWallet(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00,11:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 5000, 0, "USD"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "therapist_profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	appointment, err := svc.Create(CreateRequest{
		PatientID:     1,
		TherapistID:   2,
		Date:          date,
		Slot:          "10:00",
		DurationSecs:  3600,
		BookedFee:     models.Money{Amount: 1000, Currency: "USD"},
		PayFromWallet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, uint(11), appointment.ID)
	// Wallet holds get an internal payment reference.
	assert.True(t, strings.HasPrefix(appointment.FeeInfo.PatientTransactionID, "TXN-"))
	assert.NoError(t, mock.ExpectationsWereMet())

	// Both parties hear about the booking, after commit.
	require.Len(t, notifier.calls, 2)
	assert.Equal(t, uint(1), notifier.calls[0].ConsumerID)
	assert.Equal(t, uint(2), notifier.calls[1].ConsumerID)
}

func TestCreateWithExternalPayment(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 0, 0, "USD"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "therapist_profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	_, err := svc.Create(CreateRequest{
		PatientID:     1,
		TherapistID:   2,
		Date:          date,
		Slot:          "10:00",
		DurationSecs:  3600,
		BookedFee:     models.Money{Amount: 1000, Currency: "USD"},
		TransactionID: "TXN-ext",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsPastDate(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(1, "alice", models.RolePatient))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(2, "bob", models.RoleTherapist))
	mock.ExpectQuery(`SELECT \* FROM "therapist_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(1, 2))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2,
		Date: time.Now().AddDate(0, 0, -1), Slot: "10:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "appointment date must be in the future", err.Error())
}

func TestCreateRejectsUnknownPatient(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Create(CreateRequest{PatientID: 99, TherapistID: 2})
	var notFound *utils.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "patient not found", err.Error())
}

func TestCreateRejectsClosedDay(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, true, "{10:00}", 5)

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Contains(t, err.Error(), "therapist is not available on")
}

func TestCreateRejectsSlotOutsideTemplate(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00,11:00}", 5)

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "13:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Contains(t, err.Error(), "the selected slot '13:00' is not available")
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00,11:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}).AddRow("10:00"))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "slot already booked", err.Error())
}

func TestCreateRejectsWhenDayLimitReached(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00,11:00,12:00}", 2)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}).AddRow("11:00").AddRow("12:00"))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Contains(t, err.Error(), "appointment limit for")
}

func TestCreateRequiresTransactionIDForExternalPayment(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 0, 0, "USD"))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
		BookedFee: models.Money{Amount: 1000, Currency: "USD"},
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "transaction id is required for booked time payment", err.Error())
}

func TestCreateRejectsInsufficientWalletBalance(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 200, 0, "USD"))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
		BookedFee: models.Money{Amount: 1000, Currency: "USD"}, PayFromWallet: true,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "insufficient balance in patient wallet", err.Error())
}

func TestCreateDefaultsFeeFromProfile(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, dayIndex := futureDate()

	// expectAdmissionReads lists the therapist at a 1000 session fee.
	expectAdmissionReads(mock, dayIndex, false, "{10:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 5000, 0, "USD"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "therapist_profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(13))
	mock.ExpectCommit()

	appointment, err := svc.Create(CreateRequest{
		PatientID:     1,
		TherapistID:   2,
		Date:          date,
		Slot:          "10:00",
		DurationSecs:  3600,
		PayFromWallet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), appointment.FeeInfo.BookedFee.Amount)
	assert.Equal(t, "USD", appointment.FeeInfo.BookedFee.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnpricedBooking(t *testing.T) {
	svc, mock, _ := newTestService(t)
	date, _ := futureDate()

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(1, "alice", models.RolePatient))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(2, "bob", models.RoleTherapist))
	mock.ExpectQuery(`SELECT \* FROM "therapist_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_fee", "consume_count"}).
			AddRow(1, 2, 0, 0))

	_, err := svc.Create(CreateRequest{
		PatientID: 1, TherapistID: 2, Date: date, Slot: "10:00", DurationSecs: 3600,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "appointment has no billable fee", err.Error())
}

func TestCreateMapsUniqueViolationToSlotTaken(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	date, dayIndex := futureDate()

	expectAdmissionReads(mock, dayIndex, false, "{10:00}", 5)
	mock.ExpectQuery(`SELECT "slot" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}))
	mock.ExpectQuery(`SELECT \* FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "hold_balance", "currency"}).
			AddRow(1, 1, 5000, 0, "USD"))

	// A concurrent booking wins between the availability read and the insert:
	// the partial unique index rejects the insert and everything, the wallet
	// hold included, rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "wallets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "therapist_profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_slot_exclusive"})
	mock.ExpectRollback()

	_, err := svc.Create(CreateRequest{
		PatientID:     1,
		TherapistID:   2,
		Date:          date,
		Slot:          "10:00",
		DurationSecs:  3600,
		BookedFee:     models.Money{Amount: 1000, Currency: "USD"},
		PayFromWallet: true,
	})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "slot already booked", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.calls)
}

func appointmentRow(id uint, status models.AppointmentStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "therapist_id", "patient_id", "date", "slot", "status", "duration_secs"}).
		AddRow(id, 2, 1, time.Now().AddDate(0, 0, 1), "10:00", string(status), 3600)
}

func TestTransitionAcceptCreatesConversation(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "appointments"`).
		WillReturnRows(appointmentRow(5, models.StatusPending))
	mock.ExpectExec(`UPDATE "appointments"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appointment_id", "therapist_id", "patient_id"}).
			AddRow(3, 5, 2, 1))

	appointment, err := svc.Transition(5, models.EventAccept, TransitionParams{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, appointment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Appointment Approved", notifier.calls[0].Title)
}

func TestTransitionRejectsIllegalEvent(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "appointments"`).
		WillReturnRows(appointmentRow(5, models.StatusApproved))

	_, err := svc.Transition(5, models.EventAccept, TransitionParams{})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "only a pending appointment can be accepted, current status is approved", err.Error())
	assert.Empty(t, notifier.calls)
}

func TestTransitionRequestCancelNeedsReason(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "appointments"`).
		WillReturnRows(appointmentRow(5, models.StatusApproved))

	_, err := svc.Transition(5, models.EventRequestCancel, TransitionParams{})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "a reason is required to request cancellation", err.Error())
}

func TestTransitionRescheduleValidatesParams(t *testing.T) {
	svc, mock, _ := newTestService(t)

	tests := []struct {
		name    string
		params  TransitionParams
		message string
	}{
		{"missing reason", TransitionParams{Slot: "10:00", Date: time.Now().AddDate(0, 0, 1)},
			"a reason is required to reschedule"},
		{"missing slot", TransitionParams{Reason: "conflict", Date: time.Now().AddDate(0, 0, 1)},
			"a new slot is required to reschedule"},
		{"date in the past", TransitionParams{Reason: "conflict", Slot: "10:00", Date: time.Now().AddDate(0, 0, -1)},
			"the new appointment date must be in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery(`SELECT \* FROM "appointments"`).
				WillReturnRows(appointmentRow(5, models.StatusMissed))

			_, err := svc.Transition(5, models.EventReschedule, tt.params)
			var badRequest *utils.BadRequestError
			assert.ErrorAs(t, err, &badRequest)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestTransitionRejectsConcurrentStatusChange(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	// Another transition lands between the read and the guarded update; the
	// update matches zero rows and the event is rejected.
	mock.ExpectQuery(`SELECT \* FROM "appointments"`).
		WillReturnRows(appointmentRow(5, models.StatusPending))
	mock.ExpectExec(`UPDATE "appointments"`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Transition(5, models.EventAccept, TransitionParams{})
	var badRequest *utils.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Equal(t, "appointment is no longer pending", err.Error())
	assert.Empty(t, notifier.calls)
}

func TestTransitionMissingAppointment(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Transition(99, models.EventCancel, TransitionParams{})
	var notFound *utils.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMarkMissed(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectExec(`UPDATE "appointments"`).WillReturnResult(sqlmock.NewResult(0, 3))

	flagged, err := svc.MarkMissed()
	require.NoError(t, err)
	assert.Equal(t, int64(3), flagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
