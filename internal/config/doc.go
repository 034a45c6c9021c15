// Package config provides loading and environment overlay for the timeline
// store configuration. It exposes a Default() baseline, Load for JSON or
// YAML files and FromEnv for TIMELINE_* variables.
//
// Example:
//
//	cfg, err := config.Load("/etc/timeline.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
