// Package telegram provides Telegram Bot API integration for the garage status bot.
//
// The package supports long polling for incoming messages and sending plain-text
// replies via the Bot API using simple HTTP requests. Only the standard library is
// used for transport.
//
// Authentication requires a bot token (from @BotFather).
package telegram
