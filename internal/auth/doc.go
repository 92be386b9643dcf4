// Package auth provides authentication for the Fleet Hub API.
//
// It implements a 2-tier role model (viewer → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens validated by signature only
//   - SQLite-backed user accounts with a seeded first-boot admin
//
// Viewers can read fleet state; admins can additionally dispatch
// commands, change configuration, and manage accounts.
package auth
