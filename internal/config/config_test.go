package config

import "testing"

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("CARRIER_API_KEY", "k")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error without STRIPE_SECRET_KEY")
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("CARRIER_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error without CARRIER_API_KEY")
	}

	t.Setenv("CARRIER_API_KEY", "k")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
}

func TestGetDBURL(t *testing.T) {
	cfg := &Config{DB_USER: "u", DB_PASSWORD: "p", DB_HOST: "h", DB_PORT: "5432", DB_NAME: "d"}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.GetDBURL(); got != want {
		t.Errorf("GetDBURL = %q, want %q", got, want)
	}
}

func TestParsePricingConditions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single pair", "N01=P10", map[string]string{"N01": "P10"}},
		{"multiple pairs", "N01=P10,N02=P20", map[string]string{"N01": "P10", "N02": "P20"}},
		{"malformed pairs skipped", "N01=P10,garbage,=P30,N04=", map[string]string{"N01": "P10"}},
		{"whitespace tolerated", " N01=P10 , N02=P20", map[string]string{"N01": "P10", "N02": "P20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePricingConditions(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
