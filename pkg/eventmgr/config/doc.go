/*
Package config loads event manager configuration from YAML or JSON.

# Overview

Config wraps a decoded document and offers typed accessors that fall back
to a default on missing keys or mismatched types. Parse validates a Config
and turns it into Settings for building a manager.

# File Format

	failure_policy: isolate   # or fail_fast
	recover_panics: true
	metrics: false
	tracing: false
	log_deliveries: false
	retry:
	  max_attempts: 3
	  initial_backoff: 100ms
	  max_backoff: 2s
	kinds:                    # child: [parents...]
	  order.paid: [order]
	  order.refunded: [order, refund]

# Loading

	cfg, err := config.FromFile("events.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	settings, err := config.Parse(cfg)

Durations accept Go duration strings or a number of milliseconds.

# Thread Safety

Config is safe for concurrent reads. The underlying map is not modified
after creation.
*/
package config
