package monolith

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/di"
	"github.com/fd1az/triangular-arbitrage/internal/health"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

type recordingModule struct {
	name  string
	order *[]string
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.order = append(*m.order, "register:"+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m recordingModule) Startup(_ context.Context, mono Monolith) error {
	*m.order = append(*m.order, "start:"+m.name)
	name := m.name
	mono.OnShutdown(func(context.Context) error {
		*m.order = append(*m.order, "stop:"+name)
		if name == "b" {
			return errors.New("b failed")
		}
		return nil
	})
	return nil
}

func TestApp_Lifecycle(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	a := New(&config.Config{}, log, health.NewServer(0, "test"))

	var order []string
	mods := []Module{recordingModule{"a", &order}, recordingModule{"b", &order}}

	if err := a.RegisterModules(mods...); err != nil {
		t.Fatal(err)
	}
	if err := a.StartModules(context.Background(), mods...); err != nil {
		t.Fatal(err)
	}
	if a.Services().Get("a") != "a" {
		t.Fatal("module service not registered")
	}
	if a.Services().Get("symbols") != a.Symbols() {
		t.Fatal("symbol registry not shared")
	}

	err := a.Close(context.Background())
	if err == nil || err.Error() != "b failed" {
		t.Fatalf("Close err = %v", err)
	}

	want := []string{"register:a", "register:b", "start:a", "start:b", "stop:b", "stop:a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
