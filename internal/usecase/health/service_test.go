package health

import (
	"context"
	"errors"
	"testing"
)

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

func TestCheck_Healthy(t *testing.T) {
	svc := New(&mockStorePinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("store = %q, want %q", r.Checks["store"], CheckOK)
	}
}

func TestCheck_StoreDown(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("connection refused")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("Status = %q, want %q", r.Status, Unhealthy)
	}
	if r.Checks["store"] != CheckError {
		t.Errorf("store = %q, want %q", r.Checks["store"], CheckError)
	}
}
