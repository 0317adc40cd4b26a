package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBrokerID    = "broker_id"
	KeyEnvironment = "environment"
	KeyConfigDir   = "config_dir"
	KeyPath        = "path"
	KeyAddr        = "addr"
	KeySubject     = "subject"
	KeyShardID     = "shard_id"
	KeyReason      = "reason"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BrokerID(id string) slog.Attr    { return slog.String(KeyBrokerID, id) }
func Environment(e string) slog.Attr  { return slog.String(KeyEnvironment, e) }
func ConfigDir(d string) slog.Attr    { return slog.String(KeyConfigDir, d) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func ShardID(id string) slog.Attr     { return slog.String(KeyShardID, id) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
