package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GREETING", "")
	t.Setenv("SEED_DEMO_IDENTITIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Presence.Greeting != "hello from server" {
		t.Fatalf("unexpected greeting: %q", cfg.Presence.Greeting)
	}
	if cfg.Presence.SeedDemoIdentities {
		t.Fatal("expected seeding disabled by default")
	}
}

func TestLoadPortVariants(t *testing.T) {
	cases := []struct {
		port string
		addr string
	}{
		{"9090", ":9090"},
		{":9090", ":9090"},
		{"127.0.0.1:9090", "127.0.0.1:9090"},
	}

	for _, tc := range cases {
		t.Setenv("PORT", tc.port)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%q) err: %v", tc.port, err)
		}
		if cfg.Server.Addr != tc.addr {
			t.Fatalf("PORT=%q: got addr %q, want %q", tc.port, cfg.Server.Addr, tc.addr)
		}
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "80 80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}

func TestLoadInvalidSeedFlag(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SEED_DEMO_IDENTITIES", "not-a-bool")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SEED_DEMO_IDENTITIES")
	}
}
