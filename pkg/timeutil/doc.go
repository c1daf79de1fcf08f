// Package timeutil formats timestamps for hcm's table output.
//
// Audit entries and committee seats show their age rather than a full
// timestamp:
//
//	timeutil.Relative(entry.Timestamp)                               // "5 minutes ago"
//	timeutil.RelativeTo(due, now)                                     // "in 2 days"
//	timeutil.RelativeTo(now.AddDate(0, -2, 0), now)                   // "2026-08-16"
//
// Anything more than 30 days away falls back to a calendar date.
package timeutil
