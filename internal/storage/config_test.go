package storage

import "testing"

func TestLoadDynamoConfigDefaults(t *testing.T) {
	t.Setenv("DYNAMO_MODE", "")
	cfg := LoadDynamoConfig()

	if cfg.Mode != DynamoModeNone {
		t.Errorf("mode = %s, want none", cfg.Mode)
	}
	if cfg.RulesTable != "kin-routing-rules" {
		t.Errorf("rules table = %s", cfg.RulesTable)
	}
	if cfg.WorkersTable != "kin-workers" {
		t.Errorf("workers table = %s", cfg.WorkersTable)
	}
	if cfg.RoutingRecordsTable != "kin-routing-records" {
		t.Errorf("routing records table = %s", cfg.RoutingRecordsTable)
	}
}

func TestLoadDynamoConfigInvalidModeFallsBack(t *testing.T) {
	t.Setenv("DYNAMO_MODE", "something-else")
	cfg := LoadDynamoConfig()
	if cfg.Mode != DynamoModeNone {
		t.Errorf("mode = %s, want none for invalid value", cfg.Mode)
	}
}

func TestLoadDynamoConfigLocal(t *testing.T) {
	t.Setenv("DYNAMO_MODE", "local")
	t.Setenv("DYNAMO_ENDPOINT", "http://dynamo:8000")
	cfg := LoadDynamoConfig()

	if cfg.Mode != DynamoModeLocal {
		t.Errorf("mode = %s, want local", cfg.Mode)
	}
	if cfg.Endpoint != "http://dynamo:8000" {
		t.Errorf("endpoint = %s", cfg.Endpoint)
	}
}
