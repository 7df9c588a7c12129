// Package baseline manages versioned statistical baselines: frozen
// snapshots of recent pipeline behavior that drift analysis compares
// the live window against.
//
// A baseline holds the raw numeric samples (duration, tokens, cost) of
// the units it was established from, plus aggregate character and word
// entropy over those units' text samples. Baselines are immutable once
// established. Re-establishing installs a new version and leaves prior
// versions queryable through the history.
//
// The active baseline persists in a SQLite database so it survives
// restarts; the manager restores the newest persisted version on
// startup and continues the version sequence from there.
package baseline
