// Package model defines the shared data types of the ordering backend.
//
// Conventions:
//   - Money: float64 order totals, price * quantity summed over all lines
//   - Timestamps: time.Time in UTC, RFC 3339 on the wire
//   - IDs: "ORD-<unix-ms>-<UUID8>" for orders, opaque strings for outlets,
//     menu items and sessions
package model
