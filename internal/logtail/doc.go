// Package logtail reads the client's own log file for the logs screen.
//
// Read returns the last N lines of a file in one pass with a ring buffer, so
// memory stays proportional to N rather than to the file. Parse decodes the
// key=value lines written by the log/slog text handler into an Entry with
// time, level, message and the remaining attributes. Quoted values are
// unescaped. Filter narrows a slice of entries by minimum level and a
// case-insensitive substring.
//
//	entries, err := logtail.Tail(cfg.LogFile, 400)
//	if err != nil {
//		return err
//	}
//	warnings := logtail.Filter(entries, slog.LevelWarn, "mailing_id=101")
//
// A missing log file yields no entries and no error; the client may not have
// written anything yet.
package logtail
