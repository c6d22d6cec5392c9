// Package notifier provides destinations for the rendered garage report.
//
// The notifier package supports printing the report (dry run), sending it to a
// Telegram chat, and posting it as a Twitter status. Twitter posts are limited to
// 280 characters and truncated when the report is longer.
package notifier
