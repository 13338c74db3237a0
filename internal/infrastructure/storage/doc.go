/*
Package storage provides the durable key-value backends behind session
persistence.

# Drivers

  - memory: process-local map, lost on restart (tests, demos)
  - sqlite: single-file database via modernc.org/sqlite (default)
  - redis: shared instance via go-redis
  - file: one file per key under a directory, written atomically

All drivers implement Store. Values are opaque bytes and a Set on an
existing key replaces it.
*/
package storage
