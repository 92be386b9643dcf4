// Package config loads and validates the hub configuration.
//
// Configuration is read once at startup from a YAML file, then overridden
// by FLEETHUB_* environment variables and validated. Defaults cover every
// field a fresh install needs.
//
// Secrets (MQTT credentials, JWT secret, passcode hash) belong in the
// environment, not the file; keep the file itself at 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
