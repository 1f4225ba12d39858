// Package config loads the access-control core's configuration from
// environment variables: the PostgreSQL connection and pool settings, the
// expired-grant janitor schedule, and logging/metrics options.
//
// All variables use the ACCESS_ prefix. The only required one is
// ACCESS_POSTGRES_URL; everything else has a sensible default.
package config
