package app

import (
	"errors"
	"testing"

	"github.com/guttosm/quotegate/config"
	"github.com/guttosm/quotegate/internal/provider/baostock"
)

func TestInitializeService(t *testing.T) {
	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })

	config.AppConfig = config.Config{Baostock: config.BaostockConfig{Addr: "127.0.0.1:1", User: "u", Password: "p"}}
	svc, client, err := InitializeService()
	if err != nil || svc == nil || client == nil {
		t.Fatalf("unexpected svc=%v client=%v err=%v", svc, client, err)
	}
}

func TestInitializeService_OpenerFailure(t *testing.T) {
	old := providerOpener
	providerOpener = func(config.Config) (*baostock.Client, error) { return nil, errors.New("boom") }
	t.Cleanup(func() { providerOpener = old })

	if _, _, err := InitializeService(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInitProvider_MissingAddr(t *testing.T) {
	if _, err := InitProvider(config.Config{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
