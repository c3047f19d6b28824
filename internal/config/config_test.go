package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Port)
	}
	if cfg.RoomCapacity != 1000 {
		t.Errorf("RoomCapacity = %d, want 1000", cfg.RoomCapacity)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
}

func TestLoad_GeneratesSecretWhenUnset(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Secret == "" {
		t.Fatal("Secret is empty; signing keys must never be blank")
	}

	other, err := Load()
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if other.Secret == cfg.Secret {
		t.Error("generated secrets repeat; want a fresh one per process")
	}
}
