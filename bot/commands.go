package bot

import (
	"fmt"

	"wordler/application"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	minLimit := 1.0
	dmAllowed := false

	commands := []*discordgo.ApplicationCommand{
		{
			Name:         "wordle",
			Description:  "Wordle stats and leaderboard",
			DMPermission: &dmAllowed,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show Wordle stats for yourself or another player",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Player to show (defaults to you)",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show the current Wordle leaderboard",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "backfill",
					Description: "Scan the Wordle channel history for past results (Manage Server only)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: fmt.Sprintf("Messages to scan (default %d, max %d)", application.DefaultBackfillLimit, application.MaxBackfillLimit),
							Required:    false,
							MinValue:    &minLimit,
							MaxValue:    float64(application.MaxBackfillLimit),
						},
					},
				},
			},
		},
	}

	// Permissions apply per command, not per subcommand, so backfill checks Manage Server at run time
	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
