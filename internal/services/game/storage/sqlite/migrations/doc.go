// Package migrations embeds the SQL schema history of the SQLite journal.
package migrations
