// Package command implements the chat commands served by the garage status bot.
//
// A Command declares its name, usage text and the permission tier a channel needs
// to run it. The Router parses incoming message text, checks the channel's tier
// through a ChannelService, and executes the matching command. The garage command
// refreshes the cached garage counts and replies with the rendered report.
package command
