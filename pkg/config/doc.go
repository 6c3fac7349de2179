// Package config loads, validates and defaults the gateway configuration.
//
// A configuration describes one virtual host, the default source upstream,
// an ordered list of dependencies selected by URL pattern, base proxy options
// and feature switches for mocking, recording and logging:
//
//	{
//	  // comments are allowed in JSON files
//	  "vhost": {"name": "local.example.com", "port": 8080},
//	  "source": {"ip": "127.0.0.1", "port": 3000},
//	  "deps": [
//	    {"name": "api.example.com", "https": true, "patterns": ["/api/**"],
//	     "mocks": [{"patterns": ["**/user/*"], "methods": ["GET"], "fixture": "mocks/user.json"}]}
//	  ],
//	  "proxy": {"options": {"changeOrigin": true}, "response": {"headers": {"X-Env": "dev"}}},
//	  "options": {"recorder": {"enabled": true}}
//	}
//
// Files ending in .yaml or .yml are read as YAML, everything else as JSON with
// comments. ${VAR} and ${VAR:-default} references are substituted from the
// environment before parsing.
//
// Load applies Validate and SetDefaults, so callers always receive a
// complete configuration.
package config
