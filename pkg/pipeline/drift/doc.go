// Package drift detects behavioral drift in pipeline output by
// comparing the most recent window of units against the active
// baseline.
//
// Each analysis cycle computes two families of statistics. Entropy
// deltas track how the character-level and word-level Shannon entropy
// of stage text samples moved relative to the baseline, catching shifts
// toward repetitive or erratic output that numeric metrics miss. A
// two-sample Kolmogorov-Smirnov test per numeric metric (duration,
// tokens, cost) flags distribution changes without assuming any
// particular distribution shape.
//
// The results classify into an overall severity, ordered none < low <
// medium < high < critical. Classification checks the strongest rule
// first: a drifting KS statistic beyond the critical threshold or an
// entropy change beyond the high threshold is critical; a
// high-confidence KS drift or a medium entropy change is high; any KS
// drift or a low entropy change is medium; a smaller non-zero entropy
// change is low. The thresholds are policy choices and load from
// configuration, with optional hot reload through ThresholdWatcher.
//
// Every cycle appends a report to the store's report history, including
// degraded cycles (no baseline, or too small a window) which produce a
// none-severity report with a single indicator instead of failing.
package drift
