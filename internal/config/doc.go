// Package config handles configuration loading for posd.
//
// Configuration is loaded from a YAML file with ${VAR_NAME} environment
// variable expansion. When no file exists, Default() supplies a working
// zero-config setup with the database under the XDG data directory.
//
// Sections:
//
//	database:
//	  path: "/var/lib/posd/pos.db"
//
//	auth:
//	  session_ttl: "24h"
//	  bcrypt_cost: 10
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
