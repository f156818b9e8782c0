package usecases

import (
	"context"
	"sync"

	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

type fakeProvider struct {
	mu sync.Mutex

	password string
	loginErr error

	resources   []reservation.Resource
	scheduleErr error

	tempCodeErr error
	reserveErr  error
	qrErr       error
	listErr     error
	// listings returned one per Reservations call; the last one repeats.
	listings [][]reservation.ReservationRecord
	rides    []reservation.RideRecord

	logins, fetches, tempCodes, reserves, lists, qrs int
	reservedSlots                                    []int
}

func (f *fakeProvider) Login(_ context.Context, username, password string) (reservation.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return reservation.Session{}, f.loginErr
	}
	if password != f.password {
		return reservation.Session{}, reservation.ErrAuthInvalid
	}
	return reservation.Session{Token: "tok-" + username}, nil
}

func (f *fakeProvider) FetchSchedule(context.Context, reservation.Session, string) ([]reservation.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.resources, f.scheduleErr
}

func (f *fakeProvider) TemporaryCode(_ context.Context, _ reservation.Session, resourceID int, slotTime string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tempCodes++
	if f.tempCodeErr != nil {
		return "", f.tempCodeErr
	}
	return "TEMP-" + slotTime, nil
}

func (f *fakeProvider) Reserve(_ context.Context, _ reservation.Session, _ int, _ string, timeSlotID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserves++
	f.reservedSlots = append(f.reservedSlots, timeSlotID)
	return f.reserveErr
}

func (f *fakeProvider) Reservations(context.Context, reservation.Session) ([]reservation.ReservationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listings) == 0 {
		return nil, nil
	}
	i := min(f.lists-1, len(f.listings)-1)
	return f.listings[i], nil
}

func (f *fakeProvider) QRCode(_ context.Context, _ reservation.Session, reservationID, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrs++
	if f.qrErr != nil {
		return "", f.qrErr
	}
	return "QR-" + string(rune('0'+reservationID)), nil
}

func (f *fakeProvider) RideHistory(context.Context, reservation.Session) ([]reservation.RideRecord, error) {
	return f.rides, nil
}

type memStore struct {
	mu    sync.Mutex
	creds *user.Credentials
	saves int
}

func (m *memStore) Load(context.Context) (user.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return user.Credentials{}, internaltypes.ErrNotFound
	}
	return *m.creds, nil
}

func (m *memStore) Save(_ context.Context, c user.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.creds = &c
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

func storedCreds() *memStore {
	return &memStore{creds: &user.Credentials{Username: "alice", Password: "secret"}}
}
