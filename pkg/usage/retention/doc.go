// Package retention prunes stored listings older than a retention window.
//
// A Pruner deletes listings created before now minus RetentionDays. The
// Scheduler runs the pruner on a standard five-field cron expression, for
// example "0 3 * * *" for daily at 3 AM. Quota counters are never touched:
// pruning history does not refund usage.
package retention
