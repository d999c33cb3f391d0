package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.STUNServer != DefaultSTUN {
		t.Errorf("STUNServer = %q, want %q", cfg.STUNServer, DefaultSTUN)
	}
	if cfg.GetTURNServers() != nil {
		t.Error("no TURN servers expected without configuration")
	}
}

func TestLoadPriority(t *testing.T) {
	t.Setenv("COLLAB_SERVER_URL", "ws://env.example:9000/ws")

	// Flag beats environment.
	cfg, err := Load(Options{Server: "ws://flag.example/ws"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "ws://flag.example/ws" {
		t.Errorf("ServerURL = %q, flags must win over env", cfg.ServerURL)
	}

	// Environment beats default.
	cfg, err = Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "ws://env.example:9000/ws" {
		t.Errorf("ServerURL = %q, env must win over default", cfg.ServerURL)
	}
}

func TestLoadBareHostShorthand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"collab.example:8080", "ws://collab.example:8080/ws"},
		{"ws://already.example/ws", "ws://already.example/ws"},
		{"wss://secure.example/ws", "wss://secure.example/ws"},
	}
	for _, tt := range tests {
		cfg, err := Load(Options{Server: tt.in})
		if err != nil {
			t.Fatalf("Load(%q): %v", tt.in, err)
		}
		if cfg.ServerURL != tt.want {
			t.Errorf("Load(%q).ServerURL = %q, want %q", tt.in, cfg.ServerURL, tt.want)
		}
	}
}

func TestTURNConfiguration(t *testing.T) {
	cfg, err := Load(Options{
		TURNServer: "turn:turn.example",
		TURNUser:   "alice",
		TURNPass:   "secret",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	servers := cfg.GetTURNServers()
	if len(servers) != 2 {
		t.Fatalf("TURN servers = %v, want udp and tcp variants", servers)
	}
	if servers[0] != "turn:turn.example:3478?transport=udp" {
		t.Errorf("udp TURN url = %q", servers[0])
	}

	user, pass := cfg.GetTURNCredentials()
	if user != "alice" || pass != "secret" {
		t.Errorf("credentials = %q/%q", user, pass)
	}
}
