package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/converter"
	"github.com/napolitain/resource-engine/internal/economy"
	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/producer"
)

var (
	errUnknown = errors.New("unknown entity")
	errInvalid = errors.New("invalid amount")
)

// fakeEconomy holds fixed values and debits purchases without accrual
type fakeEconomy struct {
	mu     sync.Mutex
	values map[models.EntityID]models.ValueDto
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{values: map[models.EntityID]models.ValueDto{
		1: {Entity: 1, Resources: models.NewResources(10, 2), Time: 1000},
		2: {Entity: 2, Resources: models.NewResources(0, 0), Time: 1000},
	}}
}

func (f *fakeEconomy) Value(_ context.Context, entity models.EntityID) (models.ValueDto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[entity]
	if !ok {
		return models.ValueDto{}, errUnknown
	}
	return v, nil
}

func (f *fakeEconomy) Purchase(_ context.Context, entity models.EntityID, price models.Resources) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[entity]
	if !ok {
		return false, errUnknown
	}
	if price.HasNegative() {
		return false, errInvalid
	}
	r := v.Resources.Clone()
	if !r.Debit(price) {
		return false, nil
	}
	v.Resources = r
	f.values[entity] = v
	return true, nil
}

// Transfer moves in full, players are the entity ids
func (f *fakeEconomy) Transfer(_ context.Context, giver, receiver models.EntityID, amount models.Resources, cause models.TransferCause) (models.TransferDto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	from, ok := f.values[giver]
	if !ok {
		return models.TransferDto{}, errUnknown
	}
	to, ok := f.values[receiver]
	if !ok {
		return models.TransferDto{}, errUnknown
	}
	if amount.HasNegative() {
		return models.TransferDto{}, errInvalid
	}
	r := from.Resources.Clone()
	if !r.Debit(amount) {
		return models.TransferDto{}, errors.New("insufficient resources")
	}
	from.Resources = r
	sum := make([]float64, amount.Len())
	for i := range sum {
		sum[i] = to.Resources.Get(i) + amount.Get(i)
	}
	to.Resources = models.NewResources(sum...)
	f.values[giver] = from
	f.values[receiver] = to
	return models.TransferDto{
		Receiver:  models.PlayerID(receiver),
		Giver:     models.PlayerID(giver),
		Resources: amount.Clone(),
		Cause:     cause,
	}, nil
}

func (f *fakeEconomy) Snapshot(context.Context) ([]models.ValueDto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ValueDto
	for _, v := range f.values {
		out = append(out, v)
	}
	return out, nil
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) string {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write %q: %v", msg, err)
	}
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func TestSubscribeAndBuy(t *testing.T) {
	s := NewServer(newFakeEconomy(), Config{}, zerolog.Nop())
	conn := dial(t, s)

	tests := []struct {
		msg  string
		want string
	}{
		{"BUY 2_1_1", "ERR no entity followed"},
		{"SUB 1", "VAL 1@2_10_2@1000"},
		{"BUY 2_4_1", "OK"},
		{"BUY 2_7_0", "NO"},
		{"BUY 2_x", "ERR"},
		{"BUY 2_-1000_0", "ERR"},
		{"BUY 2_NaN_0", "ERR"},
		{"SUB 9", "ERR"},
		{"SUB one", "ERR"},
		{"HELLO", "ERR unknown command"},
	}

	for _, tt := range tests {
		got := roundTrip(t, conn, tt.msg)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("%q -> %q, want prefix %q", tt.msg, got, tt.want)
		}
	}
}

func TestTransfer(t *testing.T) {
	economy := newFakeEconomy()
	s := NewServer(economy, Config{}, zerolog.Nop())
	conn := dial(t, s)

	if got := roundTrip(t, conn, "XFER 1@2@2_1_0@2"); got != "ERR no entity followed" {
		t.Errorf("XFER before SUB -> %q", got)
	}
	roundTrip(t, conn, "SUB 1")

	tests := []struct {
		msg  string
		want string
	}{
		{"XFER 1@2@2_4_1@2", "OK 2@1@2_4_1@2"},
		{"XFER 2@1@2_1_0@2", "ERR giver is not the followed entity"},
		{"XFER 1@2@2_-3_0@0", "ERR"},
		{"XFER 1@2@2_100_0@0", "ERR"},
		{"XFER 1@9@2_1_0@0", "ERR"},
		{"XFER 1@2@2_1_0@8", "ERR"},
		{"XFER 1@2", "ERR"},
	}

	for _, tt := range tests {
		got := roundTrip(t, conn, tt.msg)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("%q -> %q, want prefix %q", tt.msg, got, tt.want)
		}
	}

	dto, err := converter.DecodeTransferDto(strings.TrimPrefix(roundTrip(t, conn, "XFER 1@2@2_1_0@1"), "OK "))
	if err != nil {
		t.Fatalf("decode transfer: %v", err)
	}
	if dto.Cause != models.CauseSteal || !dto.Resources.Equal(models.NewResources(1, 0)) {
		t.Errorf("transfer = %+v", dto)
	}

	giver, _ := economy.Value(context.Background(), 1)
	receiver, _ := economy.Value(context.Background(), 2)
	if !giver.Resources.Equal(models.NewResources(5, 1)) || !receiver.Resources.Equal(models.NewResources(5, 1)) {
		t.Errorf("giver %v, receiver %v; want [5,1] each", giver.Resources, receiver.Resources)
	}
}

func TestNegativeAmountsAgainstEconomy(t *testing.T) {
	clock := producer.NewManualClock(1_700_000_000_000)
	e := economy.New(zerolog.Nop(), clock.Now)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	storage := bonus.NewKeyed(0, []float64{0, 0}, []float64{100, 100})
	for _, id := range []models.EntityID{1, 2} {
		v := models.ValueDto{Entity: id, Resources: models.NewResources(10, 2), Time: clock.Now()}
		if err := e.Register(ctx, id, models.PlayerID(id), v, storage); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
	}

	conn := dial(t, NewServer(e, Config{}, zerolog.Nop()))
	roundTrip(t, conn, "SUB 1")

	tests := []struct {
		msg  string
		want string
	}{
		{"BUY 2_-1000_0", "ERR invalid amount"},
		{"BUY 2_0_-1", "ERR invalid amount"},
		{"XFER 1@2@2_-5_0@2", "ERR invalid amount"},
		{"XFER 1@2@2_0_-5@1", "ERR invalid amount"},
		{"BUY 2_1_1", "OK"},
		{"XFER 1@2@2_1_1@0", "OK 2@1@2_1_1@0"},
	}

	for _, tt := range tests {
		got := roundTrip(t, conn, tt.msg)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("%q -> %q, want prefix %q", tt.msg, got, tt.want)
		}
	}

	v, err := e.Value(ctx, 1)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !v.Resources.Equal(models.NewResources(8, 0)) {
		t.Errorf("entity 1 = %v, want [8,0]", v.Resources)
	}
}

func TestBroadcast(t *testing.T) {
	s := NewServer(newFakeEconomy(), Config{}, zerolog.Nop())
	follower := dial(t, s)
	other := dial(t, s)

	if got := roundTrip(t, follower, "SUB 2"); !strings.HasPrefix(got, "VAL 2@") {
		t.Fatalf("SUB 2 -> %q", got)
	}
	if got := roundTrip(t, other, "SUB 1"); !strings.HasPrefix(got, "VAL 1@") {
		t.Fatalf("SUB 1 -> %q", got)
	}
	if s.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", s.Clients())
	}

	if err := s.Broadcast(context.Background()); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	got := read(t, follower)
	dto, err := converter.DecodeValueDto(strings.TrimPrefix(got, "VAL "))
	if err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if dto.Entity != 2 {
		t.Errorf("broadcast entity = %d, want 2", dto.Entity)
	}
	if got := read(t, other); !strings.HasPrefix(got, "VAL 1@") {
		t.Errorf("other received %q, want its own entity", got)
	}
}

func TestRateLimit(t *testing.T) {
	s := NewServer(newFakeEconomy(), Config{RatePerSec: 0.001, Burst: 2}, zerolog.Nop())
	conn := dial(t, s)

	roundTrip(t, conn, "SUB 1")
	roundTrip(t, conn, "SUB 1")
	if got := roundTrip(t, conn, "SUB 1"); got != "ERR rate limited" {
		t.Errorf("third message -> %q, want ERR rate limited", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	s := NewServer(newFakeEconomy(), Config{Burst: 3}, zerolog.Nop())
	def := DefaultConfig()
	if s.cfg.ReadTimeout != def.ReadTimeout || s.cfg.RatePerSec != def.RatePerSec || s.cfg.Burst != 3 {
		t.Errorf("cfg = %+v", s.cfg)
	}
}
