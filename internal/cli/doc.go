// Package cli implements the command-line interface for garage-status.
//
// The cli package provides the Cobra-based CLI: the root command prints the current
// garage report once, "post" delivers it through a notifier (dry run, Telegram or
// Twitter), and "bot" serves the garage command to Telegram chats. Settings come from
// flags, GARAGE_* environment variables and an optional config file via viper.
package cli
