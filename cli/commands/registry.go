package commands

import (
	"github.com/spf13/cobra"
)

// CommandRegistry holds all available commands
type CommandRegistry struct {
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

// GetAllCommands returns all available commands
func (r *CommandRegistry) GetAllCommands() []*cobra.Command {
	return []*cobra.Command{
		NewVersionCommand(),
		NewListCommand(),
		NewGetCommand(),
		NewSetCommand(),
		NewExpireCommand(),
		NewDeleteCommand(),
		NewExecCommand(),
		NewConsoleCommand(),
		NewInfoCommand(),
		NewStatsCommand(),
		NewSeedCommand(),
		NewConfigCommand(),
		NewServerCommand(),
	}
}

// RegisterCommands adds all commands to the root command
func (r *CommandRegistry) RegisterCommands(rootCmd *cobra.Command) {
	for _, cmd := range r.GetAllCommands() {
		rootCmd.AddCommand(cmd)
	}
}
